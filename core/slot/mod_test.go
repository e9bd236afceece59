package slot

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/internal/testing/fake"
	"golang.org/x/xerrors"
)

var program = []byte("program")

func TestDerive(t *testing.T) {
	addr1, err := Derive(program, []byte("a"), []byte("b"))
	require.NoError(t, err)

	addr2, err := Derive(program, []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.Equal(t, addr1, addr2)

	// Seeds are length-prefixed so the boundaries matter.
	addr3, err := Derive(program, []byte("ab"))
	require.NoError(t, err)
	require.NotEqual(t, addr1, addr3)

	addr4, err := Derive([]byte("other"), []byte("a"), []byte("b"))
	require.NoError(t, err)
	require.NotEqual(t, addr1, addr4)

	// The order of the seeds is part of the derivation.
	addr5, err := Derive(program, []byte("b"), []byte("a"))
	require.NoError(t, err)
	require.NotEqual(t, addr1, addr5)

	_, err = Derive(nil)
	require.EqualError(t, err, "missing program identity")

	_, err = Derive(program, make([][]byte, MaxSeeds+1)...)
	require.EqualError(t, err, "too many seeds: 17 > 16")

	_, err = Derive(program, []byte{}, make([]byte, MaxSeedLen+1))
	require.EqualError(t, err, "seed 1 is too long: 33 > 32")
}

func TestAddress_Text(t *testing.T) {
	addr, err := Derive(program)
	require.NoError(t, err)

	text, err := addr.MarshalText()
	require.NoError(t, err)
	require.Len(t, text, AddressLen*2)

	var other Address
	require.NoError(t, other.UnmarshalText(text))
	require.Equal(t, addr, other)

	_, err = ParseAddress("zz")
	require.Error(t, err)
	require.Contains(t, err.Error(), "malformed address: ")

	_, err = ParseAddress("aabb")
	require.EqualError(t, err, "invalid address length 2 != 32")

	err = other.UnmarshalText([]byte("aabb"))
	require.EqualError(t, err, "invalid address length 2 != 32")
}

func TestCreate(t *testing.T) {
	snap := fake.NewSnapshot()
	addr := Address{1}

	err := Create(snap, addr, []byte("A"))
	require.NoError(t, err)

	err = Create(snap, addr, []byte("B"))
	require.True(t, xerrors.Is(err, ErrExists))
	require.EqualError(t, err, addr.String()+": slot already exists")

	value, err := Load(snap, addr)
	require.NoError(t, err)
	require.Equal(t, []byte("A"), value)

	err = Create(snap, Address{2}, nil)
	require.EqualError(t, err, "empty value")

	err = Create(fake.NewBadSnapshot(), addr, []byte("A"))
	require.EqualError(t, err, fake.Err("failed to read slot"))

	bad := fake.NewSnapshot()
	bad.ErrWrite = fake.GetError()
	err = Create(bad, addr, []byte("A"))
	require.EqualError(t, err, fake.Err("failed to write slot"))
}

func TestLoad(t *testing.T) {
	snap := fake.NewSnapshot()

	_, err := Load(snap, Address{1})
	require.True(t, xerrors.Is(err, ErrNotFound))

	_, err = Load(fake.NewBadSnapshot(), Address{1})
	require.EqualError(t, err, fake.Err("failed to read slot"))
}

func TestUpdate(t *testing.T) {
	snap := fake.NewSnapshot()
	addr := Address{1}

	err := Update(snap, addr, []byte("A"))
	require.True(t, xerrors.Is(err, ErrNotFound))

	require.NoError(t, Create(snap, addr, []byte("A")))
	require.NoError(t, Update(snap, addr, []byte("B")))

	value, err := Load(snap, addr)
	require.NoError(t, err)
	require.True(t, bytes.Equal([]byte("B"), value))

	err = Update(snap, addr, nil)
	require.EqualError(t, err, "empty value")
}
