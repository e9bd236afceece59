// Package command defines cli commands for the ed25519 package.
package command

import (
	"io"
	"os"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/crypto/loader"
)

// Initializer implements the Ed25519 initializer for the CLI.
//
// - implements cli.Initializer
type Initializer struct {
	// Out is the writer of the commands, or the standard output if nil.
	Out io.Writer
}

// SetCommands implements cli.Initializer.
func (i Initializer) SetCommands(provider cli.Provider) {
	out := i.Out
	if out == nil {
		out = os.Stdout
	}

	action := action{
		printer: out,

		genSigner: loader.SignerGenerator{}.Generate,
		getPubKey: getPubkey,
		saveFile:  saveToFile,
	}

	cmd := provider.SetCommand("ed25519")
	cmd.SetDescription("manage the keys of the participants")

	signer := cmd.SetSubCommand("signer")
	signer.SetDescription("manage Ed25519 signers")

	create := signer.SetSubCommand("new")
	create.SetDescription("create a new Ed25519 signer")
	create.SetFlags(cli.StringFlag{
		Name:     "save",
		Usage:    "if provided, save the signer to that file",
		Required: false,
	}, cli.BoolFlag{
		Name:     "force",
		Usage:    "in the case it saves the signer, will overwrite if needed",
		Required: false,
	})
	create.SetAction(action.newSignerAction)

	read := signer.SetSubCommand("read")
	read.SetDescription("read a signer")
	read.SetFlags(cli.StringFlag{
		Name:     "path",
		Usage:    "path to the signer's file",
		Required: true,
	}, cli.StringFlag{
		Name:  "format",
		Usage: "output format: [PUBKEY | HEX_PUBKEY | BASE64_PUBKEY]",
		Value: HexPubkey,
	})
	read.SetAction(action.loadSignerAction)
}
