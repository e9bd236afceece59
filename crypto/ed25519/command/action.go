package command

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/crypto"
	"go.dedis.ch/ballot/crypto/loader"
	"golang.org/x/xerrors"
)

const (
	// Pubkey is the format of the text form of the public key.
	Pubkey = "PUBKEY"

	// HexPubkey is the format of the hexadecimal public key, which is the
	// identity stored in the records.
	HexPubkey = "HEX_PUBKEY"

	// Base64Pubkey is the format of the base64 public key.
	Base64Pubkey = "BASE64_PUBKEY"
)

// action defines the different cli actions of the Ed25519 commands. Defining
// functions and printer helps in testing the commands.
type action struct {
	printer io.Writer

	genSigner func() ([]byte, error)
	getPubKey func(path string) (crypto.PublicKey, error)
	saveFile  func(path string, force bool, data []byte) error
}

func (a action) newSignerAction(flags cli.Flags) error {
	data, err := a.genSigner()
	if err != nil {
		return xerrors.Errorf("failed to marshal signer: %v", err)
	}

	switch flags.String("save") {
	case "":
		fmt.Fprintln(a.printer, hex.EncodeToString(data))
	default:
		err := a.saveFile(flags.String("save"), flags.Bool("force"), data)
		if err != nil {
			return xerrors.Errorf("failed to save files: %v", err)
		}
	}

	return nil
}

func (a action) loadSignerAction(flags cli.Flags) error {
	pubkey, err := a.getPubKey(flags.Path("path"))
	if err != nil {
		return xerrors.Errorf("failed to get pubkey: %v", err)
	}

	var out []byte

	switch flags.String("format") {
	case Pubkey:
		out, err = pubkey.MarshalText()
		if err != nil {
			return xerrors.Errorf("failed to marshal pubkey: %v", err)
		}
	case HexPubkey, Base64Pubkey:
		buf, err := pubkey.MarshalBinary()
		if err != nil {
			return xerrors.Errorf("failed to marshal pubkey: %v", err)
		}

		if flags.String("format") == HexPubkey {
			out = []byte(hex.EncodeToString(buf))
		} else {
			out = []byte(base64.StdEncoding.EncodeToString(buf))
		}
	default:
		return xerrors.Errorf("unknown format '%s'", flags.String("format"))
	}

	fmt.Fprintln(a.printer, string(out))

	return nil
}

// saveToFile writes the key with the file loader so that it can be loaded by
// the other commands.
func saveToFile(path string, force bool, data []byte) error {
	if fileExist(path) {
		if !force {
			return xerrors.Errorf("file '%s' already exist, use --force if you "+
				"want to overwrite", path)
		}

		err := os.Remove(path)
		if err != nil {
			return xerrors.Errorf("failed to remove file: %v", err)
		}
	}

	_, err := loader.NewFileLoader(path).LoadOrCreate(staticGenerator(data))
	if err != nil {
		return xerrors.Errorf("failed to write file: %v", err)
	}

	return nil
}

func fileExist(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

func getPubkey(path string) (crypto.PublicKey, error) {
	signer, err := loader.LoadSigner(path)
	if err != nil {
		return nil, err
	}

	return signer.GetPublicKey(), nil
}

// staticGenerator is a generator that returns the key it holds.
//
// - implements loader.Generator
type staticGenerator []byte

// Generate implements loader.Generator.
func (g staticGenerator) Generate() ([]byte, error) {
	return g, nil
}
