// Package controller implements the CLI initializer of the ledger. It opens
// the database and provides the ledger and the native execution to the other
// initializers.
package controller

import (
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/ledger"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/internal/config"
	"golang.org/x/xerrors"
)

// controller is a CLI initializer to start the ledger.
//
// - implements node.Initializer
type controller struct {
	openDB func(path string) (kv.DB, error)
}

// NewController creates a new controller for the ledger.
func NewController() node.Initializer {
	return controller{
		openDB: kv.New,
	}
}

// SetCommands implements node.Initializer. It sets the command to read the
// nonce of a signer.
func (c controller) SetCommands(builder node.Builder) {
	cmd := builder.SetCommand("ledger")
	cmd.SetDescription("inspect the ledger")

	sub := cmd.SetSubCommand("nonce")
	sub.SetDescription("print the next nonce of a signer")
	sub.SetFlags(cli.StringFlag{
		Name:     "key",
		Usage:    "path to the signer's file",
		Required: true,
	})
	sub.SetAction(builder.MakeAction(nonceAction{}))
}

// OnStart implements node.Initializer. It loads the configuration, opens the
// database and injects the ledger.
func (c controller) OnStart(flags cli.Flags, inj node.Injector) error {
	cfg, err := config.FromFlags(flags)
	if err != nil {
		return xerrors.Errorf("failed to load config: %v", err)
	}

	if cfg.LogLevel != "" {
		ballot.Logger = ballot.Logger.Level(ballot.ParseLevel(cfg.LogLevel))
	}

	db, err := c.openDB(cfg.Database)
	if err != nil {
		return xerrors.Errorf("failed to open database: %v", err)
	}

	exec := native.NewExecution()

	inj.Inject(cfg)
	inj.Inject(db)
	inj.Inject(exec)
	inj.Inject(ledger.NewLedger(db, exec))

	ballot.Logger.Debug().Str("database", cfg.Database).Msg("ledger started")

	return nil
}

// OnStop implements node.Initializer. It closes the database.
func (c controller) OnStop(inj node.Injector) error {
	var db kv.DB
	err := inj.Resolve(&db)
	if err != nil {
		return xerrors.Errorf("failed to resolve db: %v", err)
	}

	err = db.Close()
	if err != nil {
		return xerrors.Errorf("failed to close db: %v", err)
	}

	return nil
}
