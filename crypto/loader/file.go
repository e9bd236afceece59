package loader

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"

	"go.dedis.ch/ballot/crypto/ed25519"
	"golang.org/x/xerrors"
)

// fileLoader is a loader that stores the keys hex-encoded in a file.
//
// - implements loader.Loader
type fileLoader struct {
	path string

	openFn     func(path string) (*os.File, error)
	openFileFn func(path string, flags int, perms os.FileMode) (*os.File, error)
	statFn     func(path string) (os.FileInfo, error)
}

// NewFileLoader creates a new loader that is using the file given in parameter.
func NewFileLoader(path string) Loader {
	return fileLoader{
		path:       path,
		openFn:     os.Open,
		openFileFn: os.OpenFile,
		statFn:     os.Stat,
	}
}

// LoadOrCreate implements loader.Loader. It either loads the key from the file
// if it exists, or it generates a new one and stores it in the file. The file
// created is only readable by the current user (0400).
func (l fileLoader) LoadOrCreate(g Generator) ([]byte, error) {
	_, err := l.statFn(l.path)
	if !os.IsNotExist(err) {
		data, err := l.Load()
		if err != nil {
			return nil, xerrors.Errorf("failed to load file: %v", err)
		}

		return data, nil
	}

	data, err := g.Generate()
	if err != nil {
		return nil, xerrors.Errorf("generator failed: %v", err)
	}

	file, err := l.openFileFn(l.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0400)
	if err != nil {
		return nil, xerrors.Errorf("while creating file: %v", err)
	}

	defer file.Close()

	_, err = file.Write([]byte(hex.EncodeToString(data)))
	if err != nil {
		return nil, xerrors.Errorf("while writing: %v", err)
	}

	return data, nil
}

// Load implements loader.Loader. It loads the key from the file if it exists,
// otherwise it returns an error.
func (l fileLoader) Load() ([]byte, error) {
	file, err := l.openFn(l.path)
	if err != nil {
		return nil, xerrors.Errorf("while opening file: %v", err)
	}

	defer file.Close()

	text, err := io.ReadAll(file)
	if err != nil {
		return nil, xerrors.Errorf("while reading file: %v", err)
	}

	data, err := hex.DecodeString(string(bytes.TrimSpace(text)))
	if err != nil {
		return nil, xerrors.Errorf("malformed key: %v", err)
	}

	return data, nil
}

// SignerGenerator generates random Ed25519 signers.
//
// - implements loader.Generator
type SignerGenerator struct{}

// Generate implements loader.Generator. It returns the marshaled private key
// of a new signer.
func (SignerGenerator) Generate() ([]byte, error) {
	return ed25519.NewSigner().MarshalBinary()
}

// LoadSigner reads the signer stored at the path.
func LoadSigner(path string) (ed25519.Signer, error) {
	data, err := NewFileLoader(path).Load()
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to load signer: %v", err)
	}

	signer, err := ed25519.NewSignerFromBytes(data)
	if err != nil {
		return ed25519.Signer{}, xerrors.Errorf("failed to unmarshal signer: %v", err)
	}

	return signer, nil
}
