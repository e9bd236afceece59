// Package access defines the identity abstraction used to authorize the
// transactions of the ledger.
//
// The election program does not rely on access rules: an operation is allowed
// when the verified identity of the transaction equals the one stored in a
// record.
package access

import (
	"bytes"
	"encoding"

	"golang.org/x/xerrors"
)

// Identity is an abstraction to uniquely identify a signer.
type Identity interface {
	encoding.BinaryMarshaler
	encoding.TextMarshaler

	Equal(other interface{}) bool
}

// Bytes returns the binary representation of the identity, which is the form
// persisted in the records.
func Bytes(ident Identity) ([]byte, error) {
	if ident == nil {
		return nil, xerrors.New("missing identity")
	}

	buf, err := ident.MarshalBinary()
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal identity: %v", err)
	}

	return buf, nil
}

// Match returns nil if the identity is the one represented by the stored
// bytes, otherwise an error.
func Match(ident Identity, stored []byte) error {
	buf, err := Bytes(ident)
	if err != nil {
		return err
	}

	if !bytes.Equal(buf, stored) {
		return xerrors.Errorf("identity %x does not match %x", buf, stored)
	}

	return nil
}
