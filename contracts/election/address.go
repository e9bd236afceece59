package election

import (
	"github.com/rs/xid"
	"go.dedis.ch/ballot/contracts/election/types"
	"go.dedis.ch/ballot/core/slot"
	"go.dedis.ch/ballot/core/store"
	"golang.org/x/xerrors"
)

var (
	electionSeed  = []byte("election")
	candidateSeed = []byte("register_candidate")
	voterSeed     = []byte("voter")
)

// ElectionAddress returns the address of the election of the initiator for
// the salt. It is the only address where the initiator can create an
// election.
func ElectionAddress(initiator, salt []byte) (slot.Address, error) {
	addr, err := slot.Derive(ProgramID, electionSeed, initiator, salt)
	if err != nil {
		return addr, xerrors.Errorf("failed to derive: %v", err)
	}

	return addr, nil
}

// NewElectionAddress returns the address of an election of the initiator with
// a fresh salt, and the salt.
func NewElectionAddress(initiator []byte) (slot.Address, []byte, error) {
	salt := []byte(xid.New().String())

	addr, err := ElectionAddress(initiator, salt)
	if err != nil {
		return addr, nil, err
	}

	return addr, salt, nil
}

// CandidateAddress returns the address of the candidate registered by the
// signer when the election had seq candidates.
func CandidateAddress(election slot.Address, signer []byte, seq uint8) (slot.Address, error) {
	addr, err := slot.Derive(ProgramID, candidateSeed, election[:], signer, []byte{seq})
	if err != nil {
		return addr, xerrors.Errorf("failed to derive: %v", err)
	}

	return addr, nil
}

// VoterAddress returns the address of the ballot of the voter in the
// election.
func VoterAddress(election slot.Address, voter []byte) (slot.Address, error) {
	addr, err := slot.Derive(ProgramID, voterSeed, election[:], voter)
	if err != nil {
		return addr, xerrors.Errorf("failed to derive: %v", err)
	}

	return addr, nil
}

// GetElection reads the election at the address.
func GetElection(r store.Readable, addr slot.Address) (types.Election, error) {
	var election types.Election

	err := load(r, addr, &election)

	return election, err
}

// GetCandidate reads the candidate at the address.
func GetCandidate(r store.Readable, addr slot.Address) (types.Candidate, error) {
	var candidate types.Candidate

	err := load(r, addr, &candidate)

	return candidate, err
}

// GetVoter reads the ballot at the address.
func GetVoter(r store.Readable, addr slot.Address) (types.Voter, error) {
	var voter types.Voter

	err := load(r, addr, &voter)

	return voter, err
}

func load(r store.Readable, addr slot.Address, record interface{}) error {
	data, err := slot.Load(r, addr)
	if err != nil {
		return xerrors.Errorf("failed to load: %w", err)
	}

	err = types.Decode(data, record)
	if err != nil {
		return xerrors.Errorf("failed to load: %w", err)
	}

	return nil
}
