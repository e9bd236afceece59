// Package types defines the records persisted by the election contract.
package types

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// Phase is the stage of an election.
type Phase uint8

const (
	// RegisterPhase is the initial phase where candidates can register.
	RegisterPhase Phase = iota

	// VotingOpenPhase is the phase where voters can cast their ballot.
	VotingOpenPhase

	// VotingClosedPhase is the phase where nothing can change.
	VotingClosedPhase
)

var phaseNames = map[Phase]string{
	RegisterPhase:     "RegisterPhase",
	VotingOpenPhase:   "VotingOpenPhase",
	VotingClosedPhase: "VotingClosedPhase",
}

// ParsePhase returns the phase of the name.
func ParsePhase(name string) (Phase, error) {
	for phase, n := range phaseNames {
		if n == name {
			return phase, nil
		}
	}

	return 0, xerrors.Errorf("unknown phase '%s'", name)
}

// String implements fmt.Stringer.
func (p Phase) String() string {
	name, found := phaseNames[p]
	if !found {
		return "UnknownPhase"
	}

	return name
}

// MarshalText implements encoding.TextMarshaler.
func (p Phase) MarshalText() ([]byte, error) {
	name, found := phaseNames[p]
	if !found {
		return nil, xerrors.Errorf("unknown phase %d", p)
	}

	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Phase) UnmarshalText(text []byte) error {
	phase, err := ParsePhase(string(text))
	if err != nil {
		return err
	}

	*p = phase

	return nil
}

// Election is the record of an election. The initiator is the only identity
// allowed to change the phase.
type Election struct {
	Initiator          []byte `json:"initiator"`
	CandidateThreshold uint8  `json:"candidateThreshold"`
	TotalCandidate     uint8  `json:"totalCandidate"`
	Phase              Phase  `json:"phase"`
}

// Candidate is the record of a candidate of an election. Identifiers start at
// 1 and follow the registration order.
type Candidate struct {
	ID         uint8  `json:"id"`
	Name       string `json:"name"`
	Signer     []byte `json:"signer"`
	TotalVotes uint64 `json:"totalVotes"`
}

// Voter is the record of a ballot. It exists once per voter and election.
type Voter struct {
	Voter               []byte `json:"voter"`
	SelectedCandidateID uint8  `json:"selectedCandidateId"`
}

// Kind is the first byte of an encoded record and tells its type.
type Kind byte

const (
	// KindElection is the kind of an election record.
	KindElection Kind = 'E'

	// KindCandidate is the kind of a candidate record.
	KindCandidate Kind = 'C'

	// KindVoter is the kind of a ballot record.
	KindVoter Kind = 'V'
)

// ErrUnexpectedKind is returned when the data is not a record of the expected
// type.
var ErrUnexpectedKind = xerrors.New("unexpected kind")

func kindOf(record interface{}) (Kind, error) {
	switch record.(type) {
	case Election, *Election:
		return KindElection, nil
	case Candidate, *Candidate:
		return KindCandidate, nil
	case Voter, *Voter:
		return KindVoter, nil
	default:
		return 0, xerrors.Errorf("unsupported record %T", record)
	}
}

// Encode returns the kind of the record followed by its JSON document.
func Encode(record interface{}) ([]byte, error) {
	kind, err := kindOf(record)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode: %v", err)
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, xerrors.Errorf("failed to encode %T: %v", record, err)
	}

	return append([]byte{byte(kind)}, data...), nil
}

// Decode populates the record from the data. It returns ErrUnexpectedKind when
// the data holds another type of record.
func Decode(data []byte, record interface{}) error {
	kind, err := kindOf(record)
	if err != nil {
		return xerrors.Errorf("failed to decode: %v", err)
	}

	if len(data) == 0 || Kind(data[0]) != kind {
		return xerrors.Errorf("failed to decode %T: %w", record, ErrUnexpectedKind)
	}

	err = json.Unmarshal(data[1:], record)
	if err != nil {
		return xerrors.Errorf("failed to decode %T: %v", record, err)
	}

	return nil
}
