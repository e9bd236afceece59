// Package main implements the command line of the election ledger.
//
//  ballot ed25519 signer new --save owner.key
//  ballot election init --key owner.key --threshold 3
//  ballot election register --key alice.key --election XX --name Alice
//  ballot election phase --key owner.key --election XX --phase VotingOpenPhase
//  ballot election vote --key bob.key --election XX --candidate XX
//  ballot election show --election XX
//  ballot --config ballot.yaml election serve
package main

import (
	"fmt"
	"io"
	"os"

	election "go.dedis.ch/ballot/contracts/election/controller"
	ledger "go.dedis.ch/ballot/core/ledger/controller"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/crypto/ed25519/command"
	"go.dedis.ch/ballot/internal/config"
)

func main() {
	err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	return runWithCfg(args, os.Stdout)
}

func runWithCfg(args []string, out io.Writer) error {
	builder := node.NewBuilderWithCfg("ballot", out, config.Flags(),
		ledger.NewController(),
		election.NewController(),
	)

	builder.SetUsage("run elections on a local ledger")

	command.Initializer{Out: out}.SetCommands(builder)

	app := builder.Build()

	return app.Run(args)
}
