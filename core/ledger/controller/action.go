package controller

import (
	"fmt"

	"go.dedis.ch/ballot/cli/node"
	"go.dedis.ch/ballot/core/ledger"
	"go.dedis.ch/ballot/crypto/loader"
	"golang.org/x/xerrors"
)

// nonceAction is an action to print the nonce that the next transaction of a
// signer must use.
//
// - implements node.ActionTemplate
type nonceAction struct{}

// Execute implements node.ActionTemplate.
func (a nonceAction) Execute(ctx node.Context) error {
	var l *ledger.Ledger
	err := ctx.Injector.Resolve(&l)
	if err != nil {
		return xerrors.Errorf("injector: %v", err)
	}

	signer, err := loader.LoadSigner(ctx.Flags.Path("key"))
	if err != nil {
		return err
	}

	nonce, err := l.GetNonce(signer.GetPublicKey())
	if err != nil {
		return xerrors.Errorf("failed to read nonce: %v", err)
	}

	fmt.Fprintln(ctx.Out, nonce)

	return nil
}
