// Package slot implements the derived addressing of the ledger.
//
// An address is either chosen by a client for a fresh slot, or derived from an
// ordered list of seeds and the identity of the program that owns the slot.
// The same seeds always produce the same address, and a slot can be created
// only once: creating an existing slot fails with ErrExists. This is the only
// uniqueness primitive of the ledger, there is no locking.
package slot

import (
	"encoding/binary"
	"encoding/hex"

	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/crypto"
	"golang.org/x/xerrors"
)

const (
	// AddressLen is the size in bytes of an address.
	AddressLen = 32

	// MaxSeeds is the maximum number of seeds of a derivation.
	MaxSeeds = 16

	// MaxSeedLen is the maximum size in bytes of a seed.
	MaxSeedLen = 32
)

// derivedMarker separates the program identity from the seeds so that a
// derived address cannot be produced by another kind of hash input.
var derivedMarker = []byte("ProgramDerivedAddress")

var (
	// ErrExists is returned when a slot is created twice.
	ErrExists = xerrors.New("slot already exists")

	// ErrNotFound is returned when a slot does not exist.
	ErrNotFound = xerrors.New("slot not found")
)

// Address is the location of a slot.
type Address [AddressLen]byte

// ParseAddress returns the address of the hexadecimal string.
func ParseAddress(str string) (Address, error) {
	var addr Address

	buf, err := hex.DecodeString(str)
	if err != nil {
		return addr, xerrors.Errorf("malformed address: %v", err)
	}

	if len(buf) != AddressLen {
		return addr, xerrors.Errorf("invalid address length %d != %d", len(buf), AddressLen)
	}

	copy(addr[:], buf)

	return addr, nil
}

// String implements fmt.Stringer. It returns the hexadecimal form.
func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}

// Derive returns the address derived from the seeds for the program.
func Derive(program []byte, seeds ...[]byte) (Address, error) {
	var addr Address

	if len(program) == 0 {
		return addr, xerrors.New("missing program identity")
	}

	if len(seeds) > MaxSeeds {
		return addr, xerrors.Errorf("too many seeds: %d > %d", len(seeds), MaxSeeds)
	}

	h := crypto.NewHashFactory(crypto.Sha256).New()

	length := make([]byte, 2)

	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return addr, xerrors.Errorf("seed %d is too long: %d > %d", i, len(seed), MaxSeedLen)
		}

		binary.LittleEndian.PutUint16(length, uint16(len(seed)))

		h.Write(length)
		h.Write(seed)
	}

	h.Write(program)
	h.Write(derivedMarker)

	copy(addr[:], h.Sum(nil))

	return addr, nil
}

// Create stores the value in a new slot. It fails with ErrExists if the slot
// is already occupied.
func Create(snap store.Snapshot, addr Address, value []byte) error {
	if len(value) == 0 {
		return xerrors.New("empty value")
	}

	current, err := snap.Get(addr[:])
	if err != nil {
		return xerrors.Errorf("failed to read slot: %v", err)
	}

	if current != nil {
		return xerrors.Errorf("%v: %w", addr, ErrExists)
	}

	err = snap.Set(addr[:], value)
	if err != nil {
		return xerrors.Errorf("failed to write slot: %v", err)
	}

	return nil
}

// Load returns the value of the slot. It fails with ErrNotFound if the slot
// does not exist.
func Load(r store.Readable, addr Address) ([]byte, error) {
	value, err := r.Get(addr[:])
	if err != nil {
		return nil, xerrors.Errorf("failed to read slot: %v", err)
	}

	if value == nil {
		return nil, xerrors.Errorf("%v: %w", addr, ErrNotFound)
	}

	return value, nil
}

// Update replaces the value of an existing slot. It fails with ErrNotFound if
// the slot does not exist.
func Update(snap store.Snapshot, addr Address, value []byte) error {
	if len(value) == 0 {
		return xerrors.New("empty value")
	}

	_, err := Load(snap, addr)
	if err != nil {
		return err
	}

	err = snap.Set(addr[:], value)
	if err != nil {
		return xerrors.Errorf("failed to write slot: %v", err)
	}

	return nil
}
