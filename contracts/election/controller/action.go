package controller

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/fatih/color"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/contracts/election"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/ledger"
	"go.dedis.ch/ballot/core/slot"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/txn/signed"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/crypto/loader"
	"go.dedis.ch/ballot/internal/config"
	phttp "go.dedis.ch/ballot/proxy/http"
	"golang.org/x/xerrors"
)

var (
	acceptedColor = color.New(color.FgGreen, color.Bold)
	rejectedColor = color.New(color.FgRed, color.Bold)
)

// initAction is an action to create an election.
//
// - implements node.ActionTemplate
type initAction struct{}

// Execute implements node.ActionTemplate. It submits the initialization of an
// election and prints its address.
func (a initAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	signer, err := loader.LoadSigner(ctx.Flags.Path(keyFlag))
	if err != nil {
		return err
	}

	initiator, err := access.Bytes(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("initiator: %v", err)
	}

	var addr slot.Address
	salt := []byte(ctx.Flags.String(saltFlag))

	if len(salt) > 0 {
		addr, err = election.ElectionAddress(initiator, salt)
	} else {
		addr, salt, err = election.NewElectionAddress(initiator)
	}
	if err != nil {
		return xerrors.Errorf("failed to make address: %v", err)
	}

	receipt, err := submit(l, signer,
		arg(election.CmdArg, string(election.CmdInitialize)),
		arg(election.ElectionArg, addr.String()),
		arg(election.SaltArg, string(salt)),
		arg(election.ThresholdArg, strconv.Itoa(ctx.Flags.Int(thresholdFlag))),
	)
	if err != nil {
		return err
	}

	printReceipt(ctx.Out, receipt)

	if receipt.Accepted {
		fmt.Fprintf(ctx.Out, "election: %v\n", addr)
	}

	return nil
}

// registerAction is an action to register the signer as a candidate.
//
// - implements node.ActionTemplate
type registerAction struct{}

// Execute implements node.ActionTemplate. It submits the registration and
// prints the address of the candidate when it is accepted.
func (a registerAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	signer, err := loader.LoadSigner(ctx.Flags.Path(keyFlag))
	if err != nil {
		return err
	}

	addr, err := parseAddress(ctx, electionFlag)
	if err != nil {
		return err
	}

	receipt, err := submit(l, signer,
		arg(election.CmdArg, string(election.CmdRegister)),
		arg(election.ElectionArg, addr.String()),
		arg(election.NameArg, ctx.Flags.String(nameFlag)),
	)
	if err != nil {
		return err
	}

	printReceipt(ctx.Out, receipt)

	if !receipt.Accepted {
		return nil
	}

	signerBytes, err := access.Bytes(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	// The accepted registration is the last one of the election.
	err = l.View(func(r store.Readable) error {
		e, err := election.GetElection(r, addr)
		if err != nil {
			return err
		}

		candidateAddr, err := election.CandidateAddress(addr, signerBytes, e.TotalCandidate-1)
		if err != nil {
			return err
		}

		fmt.Fprintf(ctx.Out, "candidate: %v\n", candidateAddr)

		return nil
	})
	if err != nil {
		return xerrors.Errorf("failed to read candidate: %v", err)
	}

	return nil
}

// phaseAction is an action to change the phase of an election.
//
// - implements node.ActionTemplate
type phaseAction struct{}

// Execute implements node.ActionTemplate.
func (a phaseAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	signer, err := loader.LoadSigner(ctx.Flags.Path(keyFlag))
	if err != nil {
		return err
	}

	addr, err := parseAddress(ctx, electionFlag)
	if err != nil {
		return err
	}

	receipt, err := submit(l, signer,
		arg(election.CmdArg, string(election.CmdChangePhase)),
		arg(election.ElectionArg, addr.String()),
		arg(election.PhaseArg, ctx.Flags.String(phaseFlag)),
	)
	if err != nil {
		return err
	}

	printReceipt(ctx.Out, receipt)

	return nil
}

// voteAction is an action to cast the ballot of the signer.
//
// - implements node.ActionTemplate
type voteAction struct{}

// Execute implements node.ActionTemplate.
func (a voteAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	signer, err := loader.LoadSigner(ctx.Flags.Path(keyFlag))
	if err != nil {
		return err
	}

	addr, err := parseAddress(ctx, electionFlag)
	if err != nil {
		return err
	}

	candidateAddr, err := parseAddress(ctx, candidateFlag)
	if err != nil {
		return err
	}

	receipt, err := submit(l, signer,
		arg(election.CmdArg, string(election.CmdVote)),
		arg(election.ElectionArg, addr.String()),
		arg(election.CandidateArg, candidateAddr.String()),
	)
	if err != nil {
		return err
	}

	printReceipt(ctx.Out, receipt)

	return nil
}

// showAction is an action to print the records of an election.
//
// - implements node.ActionTemplate
type showAction struct{}

// Execute implements node.ActionTemplate. It prints the election and, when
// requested, some candidates and the ballot of a voter.
func (a showAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	addr, err := parseAddress(ctx, electionFlag)
	if err != nil {
		return err
	}

	return l.View(func(r store.Readable) error {
		e, err := election.GetElection(r, addr)
		if err != nil {
			return xerrors.Errorf("election: %v", err)
		}

		err = printRecord(ctx.Out, "election", e)
		if err != nil {
			return err
		}

		for _, value := range ctx.Flags.StringSlice(candidateFlag) {
			candidateAddr, err := slot.ParseAddress(value)
			if err != nil {
				return xerrors.Errorf("invalid %s: %v", candidateFlag, err)
			}

			candidate, err := election.GetCandidate(r, candidateAddr)
			if err != nil {
				return xerrors.Errorf("candidate %v: %v", candidateAddr, err)
			}

			err = printRecord(ctx.Out, "candidate", candidate)
			if err != nil {
				return err
			}
		}

		if ctx.Flags.String(voterFlag) != "" {
			voter, err := hex.DecodeString(ctx.Flags.String(voterFlag))
			if err != nil {
				return xerrors.Errorf("invalid voter: %v", err)
			}

			voterAddr, err := election.VoterAddress(addr, voter)
			if err != nil {
				return xerrors.Errorf("voter address: %v", err)
			}

			ballotRecord, err := election.GetVoter(r, voterAddr)
			if err != nil {
				return xerrors.Errorf("voter: %v", err)
			}

			err = printRecord(ctx.Out, "voter", ballotRecord)
			if err != nil {
				return err
			}
		}

		return nil
	})
}

// serveAction is an action to serve the records with the HTTP proxy until the
// process is interrupted.
//
// - implements node.ActionTemplate
type serveAction struct {
	// signals overrides the channel notified on interruption.
	signals chan os.Signal
}

// Execute implements node.ActionTemplate.
func (a serveAction) Execute(ctx node.Context) error {
	l, err := resolveLedger(ctx.Injector)
	if err != nil {
		return err
	}

	var cfg config.Config
	err = ctx.Injector.Resolve(&cfg)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	var opts []phttp.Option
	if ctx.Flags.Duration(timeoutFlag) > 0 {
		opts = append(opts, phttp.WithShutdownTimeout(ctx.Flags.Duration(timeoutFlag)))
	}

	srv := phttp.NewHTTP(cfg.Listen, opts...)
	registerHandlers(srv, l)
	srv.RegisterMetrics(ballot.PromCollectors...)

	sigs := a.signals
	if sigs == nil {
		sigs = make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigs)
	}

	err = srv.Listen()
	if err != nil {
		return xerrors.Errorf("failed to start proxy: %v", err)
	}

	fmt.Fprintf(ctx.Out, "serving on %v\n", srv.GetAddr())

	<-sigs

	err = srv.Stop()
	if err != nil {
		return xerrors.Errorf("failed to stop proxy: %v", err)
	}

	return nil
}

func resolveLedger(inj node.Injector) (*ledger.Ledger, error) {
	var l *ledger.Ledger
	err := inj.Resolve(&l)
	if err != nil {
		return nil, xerrors.Errorf("injector: %v", err)
	}

	return l, nil
}

func parseAddress(ctx node.Context, flag string) (slot.Address, error) {
	addr, err := slot.ParseAddress(ctx.Flags.String(flag))
	if err != nil {
		return addr, xerrors.Errorf("invalid %s: %v", flag, err)
	}

	return addr, nil
}

func arg(key, value string) txn.Arg {
	return txn.Arg{Key: key, Value: []byte(value)}
}

// submit signs a transaction with the next nonce of the signer and submits it
// to the ledger.
func submit(l *ledger.Ledger, signer crypto.Signer, args ...txn.Arg) (ledger.Receipt, error) {
	mgr := signed.NewManager(signer, l)

	err := mgr.Sync()
	if err != nil {
		return ledger.Receipt{}, xerrors.Errorf("failed to sync manager: %v", err)
	}

	args = append(args, arg(native.ContractArg, election.ContractName))

	tx, err := mgr.Make(args...)
	if err != nil {
		return ledger.Receipt{}, xerrors.Errorf("failed to make tx: %v", err)
	}

	receipt, err := l.Submit(context.Background(), tx)
	if err != nil {
		return receipt, xerrors.Errorf("failed to submit tx: %v", err)
	}

	ballot.Logger.Debug().Hex("tx", receipt.ID).Msg("transaction submitted")

	return receipt, nil
}

func printReceipt(out io.Writer, receipt ledger.Receipt) {
	if receipt.Accepted {
		acceptedColor.Fprintf(out, "accepted %x\n", receipt.ID)
		return
	}

	rejectedColor.Fprintf(out, "rejected %x: %s\n", receipt.ID, receipt.Message)
}

func printRecord(out io.Writer, kind string, record interface{}) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return xerrors.Errorf("failed to encode %s: %v", kind, err)
	}

	fmt.Fprintf(out, "%s: %s\n", kind, data)

	return nil
}
