// Package controller implements the CLI initializer of the election contract.
//
// The commands sign a transaction with the key of the caller and submit it to
// the local ledger. The serve command exposes the records with a read-only
// HTTP proxy.
package controller

import (
	"time"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/contracts/election"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/internal/config"
	"golang.org/x/xerrors"
)

const (
	keyFlag       = "key"
	electionFlag  = "election"
	thresholdFlag = "threshold"
	saltFlag      = "salt"
	nameFlag      = "name"
	phaseFlag     = "phase"
	candidateFlag = "candidate"
	voterFlag     = "voter"
	timeoutFlag   = "timeout"
)

const defaultShutdownTimeout = 10 * time.Second

// controller is a CLI initializer to register the election contract.
//
// - implements node.Initializer
type controller struct{}

// NewController creates a new controller for the election contract.
func NewController() node.Initializer {
	return controller{}
}

// SetCommands implements node.Initializer. It sets the commands to run the
// elections.
func (controller) SetCommands(builder node.Builder) {
	keyArg := cli.StringFlag{
		Name:     keyFlag,
		Usage:    "path to the signer's file",
		Required: true,
	}

	electionArg := cli.StringFlag{
		Name:     electionFlag,
		Usage:    "hexadecimal address of the election",
		Required: true,
	}

	cmd := builder.SetCommand("election")
	cmd.SetDescription("run elections on the ledger")

	sub := cmd.SetSubCommand("init")
	sub.SetDescription("create an election owned by the signer")
	sub.SetFlags(keyArg, cli.IntFlag{
		Name:     thresholdFlag,
		Usage:    "maximum number of candidates",
		Required: true,
	}, cli.StringFlag{
		Name:  saltFlag,
		Usage: "salt of the election address, a fresh one if empty",
	})
	sub.SetAction(builder.MakeAction(initAction{}))

	sub = cmd.SetSubCommand("register")
	sub.SetDescription("register the signer as a candidate")
	sub.SetFlags(keyArg, electionArg, cli.StringFlag{
		Name:     nameFlag,
		Usage:    "name of the candidate",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(registerAction{}))

	sub = cmd.SetSubCommand("phase")
	sub.SetDescription("change the phase of an election")
	sub.SetFlags(keyArg, electionArg, cli.StringFlag{
		Name:     phaseFlag,
		Usage:    "RegisterPhase, VotingOpenPhase or VotingClosedPhase",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(phaseAction{}))

	sub = cmd.SetSubCommand("vote")
	sub.SetDescription("cast the ballot of the signer")
	sub.SetFlags(keyArg, electionArg, cli.StringFlag{
		Name:     candidateFlag,
		Usage:    "hexadecimal address of the candidate",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(voteAction{}))

	sub = cmd.SetSubCommand("show")
	sub.SetDescription("print the records of an election")
	sub.SetFlags(electionArg, cli.StringSliceFlag{
		Name:  candidateFlag,
		Usage: "hexadecimal address of a candidate, can be repeated",
	}, cli.StringFlag{
		Name:  voterFlag,
		Usage: "hexadecimal public key of a voter",
	})
	sub.SetAction(builder.MakeAction(showAction{}))

	sub = cmd.SetSubCommand("serve")
	sub.SetDescription("serve the records over HTTP until interrupted")
	sub.SetFlags(cli.DurationFlag{
		Name:    timeoutFlag,
		Usage:   "duration to wait for the requests in flight on shutdown",
		Value:   defaultShutdownTimeout,
		EnvVars: []string{config.EnvPrefix + "TIMEOUT"},
	})
	sub.SetAction(builder.MakeAction(serveAction{}))
}

// OnStart implements node.Initializer. It registers the election contract.
func (controller) OnStart(flags cli.Flags, inj node.Injector) error {
	var exec *native.Service
	err := inj.Resolve(&exec)
	if err != nil {
		return xerrors.Errorf("failed to resolve native service: %v", err)
	}

	election.RegisterContract(exec, election.NewContract())

	return nil
}

// OnStop implements node.Initializer.
func (controller) OnStop(node.Injector) error {
	return nil
}
