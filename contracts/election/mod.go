// Package election implements a native contract that runs elections.
//
// An election is created by an initiator with a threshold of candidates. It
// goes through the register phase, where identities register candidates, the
// voting phase, where every identity casts at most one ballot, and the closed
// phase. Only the initiator changes the phase.
//
// The records live in slots. The candidate and ballot slots are derived from
// the election address and the identity of the caller, so that a second
// registration at the same sequence number, or a second ballot, collides with
// the existing slot and the transaction is refused. The election slot itself
// is derived from the initiator and a salt, so that no identity can create an
// election at a slot reserved to another record.
package election

import (
	"bytes"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/contracts/election/types"
	"go.dedis.ch/ballot/core/access"
	"go.dedis.ch/ballot/core/execution"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/slot"
	"go.dedis.ch/ballot/core/store"
	"golang.org/x/xerrors"
)

var (
	promCandidates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballot_election_candidates_total",
		Help: "total number of candidates registered",
	})

	promVotes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ballot_election_votes_total",
		Help: "total number of ballots cast",
	})
)

func init() {
	ballot.PromCollectors = append(ballot.PromCollectors, promCandidates, promVotes)
}

// commands defines the commands of the election contract. This interface helps
// in testing the contract.
type commands interface {
	initialize(snap store.Snapshot, step execution.Step) error
	register(snap store.Snapshot, step execution.Step) error
	changePhase(snap store.Snapshot, step execution.Step) error
	vote(snap store.Snapshot, step execution.Step) error
}

const (
	// ContractName is the name of the contract.
	ContractName = "go.dedis.ch/ballot.Election"

	// ElectionArg is the argument's name in the transaction that contains the
	// hexadecimal address of the election.
	ElectionArg = "election:address"

	// SaltArg is the argument's name in the transaction that contains the salt
	// used to derive the address of a new election.
	SaltArg = "election:salt"

	// ThresholdArg is the argument's name in the transaction that contains the
	// maximum number of candidates, in decimal.
	ThresholdArg = "election:threshold"

	// NameArg is the argument's name in the transaction that contains the name
	// of a candidate.
	NameArg = "election:name"

	// PhaseArg is the argument's name in the transaction that contains the
	// name of the new phase.
	PhaseArg = "election:phase"

	// CandidateArg is the argument's name in the transaction that contains the
	// hexadecimal address of the candidate of a ballot.
	CandidateArg = "election:candidate"

	// CmdArg is the argument's name to indicate the kind of command we want to
	// run on the contract. Should be one of the Command type.
	CmdArg = "election:command"
)

// MaxNameLen is the maximum size in bytes of the name of a candidate.
const MaxNameLen = 400

// ProgramID is the identity of the contract used to derive its slots.
var ProgramID = []byte(ContractName)

// Command defines a type of command for the election contract.
type Command string

const (
	// CmdInitialize defines the command to create an election.
	CmdInitialize Command = "INITIALIZE"

	// CmdRegister defines the command to register a candidate.
	CmdRegister Command = "REGISTER"

	// CmdChangePhase defines the command to change the phase of an election.
	CmdChangePhase Command = "CHANGE_PHASE"

	// CmdVote defines the command to cast a ballot.
	CmdVote Command = "VOTE"
)

// RegisterContract registers the election contract to the given execution
// service.
func RegisterContract(exec *native.Service, c Contract) {
	exec.Set(ContractName, c)
}

// Contract is the election smart contract.
//
// - implements native.Contract
type Contract struct {
	cmd commands
}

// NewContract creates a new election contract.
func NewContract() Contract {
	contract := Contract{}

	contract.cmd = electionCommand{Contract: &contract}

	return contract
}

// Execute implements native.Contract. It runs the appropriate command.
func (c Contract) Execute(snap store.Snapshot, step execution.Step) error {
	cmd := step.Current.GetArg(CmdArg)
	if len(cmd) == 0 {
		return newError(CodeInvalidArgument, "'%s' not found in tx arg", CmdArg)
	}

	switch Command(cmd) {
	case CmdInitialize:
		err := c.cmd.initialize(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to INITIALIZE: %w", err)
		}
	case CmdRegister:
		err := c.cmd.register(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to REGISTER: %w", err)
		}
	case CmdChangePhase:
		err := c.cmd.changePhase(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to CHANGE_PHASE: %w", err)
		}
	case CmdVote:
		err := c.cmd.vote(snap, step)
		if err != nil {
			return xerrors.Errorf("failed to VOTE: %w", err)
		}
	default:
		return newError(CodeInvalidArgument, "unknown command: %s", cmd)
	}

	return nil
}

// electionCommand implements the commands of the election contract
//
// - implements commands
type electionCommand struct {
	*Contract
}

// initialize implements commands. It creates the election at the address
// derived from the caller and the salt.
func (c electionCommand) initialize(snap store.Snapshot, step execution.Step) error {
	addr, err := getAddress(step, ElectionArg)
	if err != nil {
		return err
	}

	threshold, err := strconv.Atoi(string(step.Current.GetArg(ThresholdArg)))
	if err != nil {
		return newError(CodeInvalidArgument, "malformed threshold: %v", err)
	}

	if threshold <= 0 {
		return newError(CodeThresholdNotPositive, "%d <= 0", threshold)
	}

	if threshold > 255 {
		return newError(CodeInvalidArgument, "threshold %d > 255", threshold)
	}

	initiator, err := access.Bytes(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("initiator: %v", err)
	}

	salt := step.Current.GetArg(SaltArg)
	if len(salt) == 0 {
		return newError(CodeInvalidArgument, "'%s' not found in tx arg", SaltArg)
	}

	expected, err := ElectionAddress(initiator, salt)
	if err != nil {
		return newError(CodeInvalidArgument, "%s: %v", SaltArg, err)
	}

	if expected != addr {
		return newError(CodeInvalidArgument, "%v is not derived from the initiator", addr)
	}

	election := types.Election{
		Initiator:          initiator,
		CandidateThreshold: uint8(threshold),
		TotalCandidate:     0,
		Phase:              types.RegisterPhase,
	}

	err = create(snap, addr, election)
	if err != nil {
		return xerrors.Errorf("election: %w", err)
	}

	ballot.Logger.Info().
		Str("contract", "election").
		Stringer("election", addr).
		Int("threshold", threshold).
		Msg("election initialized")

	return nil
}

// register implements commands. It creates a candidate at the slot derived
// from the election, the caller and the number of candidates.
func (c electionCommand) register(snap store.Snapshot, step execution.Step) error {
	addr, err := getAddress(step, ElectionArg)
	if err != nil {
		return err
	}

	election, err := loadElection(snap, addr)
	if err != nil {
		return err
	}

	if election.Phase != types.RegisterPhase {
		return newError(CodeRegisterPhaseClosed, "election is in %v", election.Phase)
	}

	if election.TotalCandidate >= election.CandidateThreshold {
		return newError(CodeCandidateFull, "%d candidates", election.TotalCandidate)
	}

	name := string(step.Current.GetArg(NameArg))
	if name == "" {
		return newError(CodeInvalidArgument, "'%s' not found in tx arg", NameArg)
	}

	if len(name) > MaxNameLen {
		return newError(CodeInvalidArgument, "name of %d bytes > %d", len(name), MaxNameLen)
	}

	signer, err := access.Bytes(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("signer: %v", err)
	}

	seq := election.TotalCandidate

	candidateAddr, err := CandidateAddress(addr, signer, seq)
	if err != nil {
		return xerrors.Errorf("candidate address: %v", err)
	}

	candidate := types.Candidate{
		ID:         seq + 1,
		Name:       name,
		Signer:     signer,
		TotalVotes: 0,
	}

	err = create(snap, candidateAddr, candidate)
	if err != nil {
		return xerrors.Errorf("candidate: %w", err)
	}

	election.TotalCandidate++

	err = update(snap, addr, election)
	if err != nil {
		return xerrors.Errorf("election: %w", err)
	}

	promCandidates.Inc()

	ballot.Logger.Info().
		Str("contract", "election").
		Stringer("election", addr).
		Stringer("candidate", candidateAddr).
		Uint8("id", candidate.ID).
		Str("name", name).
		Msg("candidate registered")

	return nil
}

// changePhase implements commands. It sets the phase of the election when the
// caller is the initiator.
func (c electionCommand) changePhase(snap store.Snapshot, step execution.Step) error {
	addr, err := getAddress(step, ElectionArg)
	if err != nil {
		return err
	}

	phase, err := types.ParsePhase(string(step.Current.GetArg(PhaseArg)))
	if err != nil {
		return newError(CodeInvalidArgument, "%v", err)
	}

	election, err := loadElection(snap, addr)
	if err != nil {
		return err
	}

	err = access.Match(step.Current.GetIdentity(), election.Initiator)
	if err != nil {
		return newError(CodeUnauthorized, "%v", err)
	}

	previous := election.Phase
	election.Phase = phase

	err = update(snap, addr, election)
	if err != nil {
		return xerrors.Errorf("election: %w", err)
	}

	ballot.Logger.Info().
		Str("contract", "election").
		Stringer("election", addr).
		Stringer("from", previous).
		Stringer("to", phase).
		Msg("phase changed")

	return nil
}

// vote implements commands. It creates the ballot of the caller and counts it
// for the candidate.
func (c electionCommand) vote(snap store.Snapshot, step execution.Step) error {
	addr, err := getAddress(step, ElectionArg)
	if err != nil {
		return err
	}

	election, err := loadElection(snap, addr)
	if err != nil {
		return err
	}

	if election.Phase != types.VotingOpenPhase {
		return newError(CodeVotingPhaseClosed, "election is in %v", election.Phase)
	}

	candidateAddr, err := getAddress(step, CandidateArg)
	if err != nil {
		return err
	}

	candidate, err := GetCandidate(snap, candidateAddr)
	if err != nil {
		if xerrors.Is(err, slot.ErrNotFound) || xerrors.Is(err, types.ErrUnexpectedKind) {
			return newError(CodeCandidateNotInElection, "%v", err)
		}

		return xerrors.Errorf("candidate: %v", err)
	}

	err = checkMembership(addr, election, candidateAddr, candidate)
	if err != nil {
		return err
	}

	voter, err := access.Bytes(step.Current.GetIdentity())
	if err != nil {
		return xerrors.Errorf("voter: %v", err)
	}

	voterAddr, err := VoterAddress(addr, voter)
	if err != nil {
		return xerrors.Errorf("voter address: %v", err)
	}

	ballotRecord := types.Voter{
		Voter:               voter,
		SelectedCandidateID: candidate.ID,
	}

	err = create(snap, voterAddr, ballotRecord)
	if err != nil {
		return xerrors.Errorf("voter: %w", err)
	}

	candidate.TotalVotes++

	err = update(snap, candidateAddr, candidate)
	if err != nil {
		return xerrors.Errorf("candidate: %w", err)
	}

	promVotes.Inc()

	ballot.Logger.Info().
		Str("contract", "election").
		Stringer("election", addr).
		Uint8("candidate", candidate.ID).
		Msg("ballot cast")

	return nil
}

// checkMembership returns nil when the candidate lives at the slot derived
// from the election.
func checkMembership(addr slot.Address, election types.Election,
	candidateAddr slot.Address, candidate types.Candidate) error {

	if candidate.ID == 0 || candidate.ID > election.TotalCandidate {
		return newError(CodeCandidateNotInElection, "id %d out of range", candidate.ID)
	}

	expected, err := CandidateAddress(addr, candidate.Signer, candidate.ID-1)
	if err != nil {
		return newError(CodeCandidateNotInElection, "%v", err)
	}

	if !bytes.Equal(expected[:], candidateAddr[:]) {
		return newError(CodeCandidateNotInElection, "%v is not registered in %v",
			candidateAddr, addr)
	}

	return nil
}

// loadElection reads the election at the address. A slot holding another
// record is an invalid argument.
func loadElection(snap store.Snapshot, addr slot.Address) (types.Election, error) {
	election, err := GetElection(snap, addr)
	if xerrors.Is(err, types.ErrUnexpectedKind) {
		return election, newError(CodeInvalidArgument, "%v is not an election", addr)
	}
	if err != nil {
		return election, xerrors.Errorf("election: %w", err)
	}

	return election, nil
}

func getAddress(step execution.Step, key string) (slot.Address, error) {
	value := step.Current.GetArg(key)
	if len(value) == 0 {
		return slot.Address{}, newError(CodeInvalidArgument, "'%s' not found in tx arg", key)
	}

	addr, err := slot.ParseAddress(string(value))
	if err != nil {
		return addr, newError(CodeInvalidArgument, "%s: %v", key, err)
	}

	return addr, nil
}

func create(snap store.Snapshot, addr slot.Address, record interface{}) error {
	data, err := types.Encode(record)
	if err != nil {
		return err
	}

	return slot.Create(snap, addr, data)
}

func update(snap store.Snapshot, addr slot.Address, record interface{}) error {
	data, err := types.Encode(record)
	if err != nil {
		return err
	}

	return slot.Update(snap, addr, data)
}
