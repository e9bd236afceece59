package election

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/contracts/election/types"
	"go.dedis.ch/ballot/core/execution/native"
	"go.dedis.ch/ballot/core/ledger"
	"go.dedis.ch/ballot/core/slot"
	"go.dedis.ch/ballot/core/store"
	"go.dedis.ch/ballot/core/store/kv"
	"go.dedis.ch/ballot/core/txn"
	"go.dedis.ch/ballot/core/txn/signed"
	"go.dedis.ch/ballot/crypto/ed25519"
)

func TestScenario_Election(t *testing.T) {
	l := newLedger(t)

	initiator := newUser(t, l)
	registrantA := newUser(t, l)
	registrantB := newUser(t, l)
	registrantC := newUser(t, l)
	voterX := newUser(t, l)

	addr, salt := initiator.newElection(t)

	receipt := initiator.submit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "2")
	require.True(t, receipt.Accepted, receipt.Message)

	receipt = registrantA.submit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "A")
	require.True(t, receipt.Accepted, receipt.Message)

	receipt = registrantB.submit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "B")
	require.True(t, receipt.Accepted, receipt.Message)

	receipt = registrantC.submit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "C")
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, ErrCandidateFull)

	candidateA, err := CandidateAddress(addr, registrantA.id, 0)
	require.NoError(t, err)

	candidateB, err := CandidateAddress(addr, registrantB.id, 1)
	require.NoError(t, err)

	require.Equal(t, types.Candidate{ID: 1, Name: "A", Signer: registrantA.id},
		readCandidate(t, l, candidateA))
	require.Equal(t, types.Candidate{ID: 2, Name: "B", Signer: registrantB.id},
		readCandidate(t, l, candidateB))
	require.Equal(t, uint8(2), readElection(t, l, addr).TotalCandidate)

	receipt = voterX.submit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidateB.String())
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, ErrVotingPhaseClosed)

	receipt = voterX.submit(t, CmdChangePhase, ElectionArg, addr.String(), PhaseArg, "VotingOpenPhase")
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, ErrUnauthorized)
	require.Equal(t, types.RegisterPhase, readElection(t, l, addr).Phase)

	receipt = initiator.submit(t, CmdChangePhase, ElectionArg, addr.String(), PhaseArg, "VotingOpenPhase")
	require.True(t, receipt.Accepted, receipt.Message)

	receipt = registrantC.submit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "C")
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, ErrRegisterPhaseClosed)
	require.Equal(t, uint8(2), readElection(t, l, addr).TotalCandidate)

	receipt = voterX.submit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidateB.String())
	require.True(t, receipt.Accepted, receipt.Message)
	require.Equal(t, uint64(1), readCandidate(t, l, candidateB).TotalVotes)

	voterAddr, err := VoterAddress(addr, voterX.id)
	require.NoError(t, err)

	err = l.View(func(r store.Readable) error {
		voter, err := GetVoter(r, voterAddr)
		require.NoError(t, err)
		require.Equal(t, types.Voter{Voter: voterX.id, SelectedCandidateID: 2}, voter)

		return nil
	})
	require.NoError(t, err)

	receipt = voterX.submit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidateA.String())
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, slot.ErrExists)

	// The refused ballot did not count for the candidate.
	require.Equal(t, uint64(0), readCandidate(t, l, candidateA).TotalVotes)
	require.Equal(t, uint64(1), readCandidate(t, l, candidateB).TotalVotes)

	receipt = initiator.submit(t, CmdChangePhase, ElectionArg, addr.String(), PhaseArg, "VotingClosedPhase")
	require.True(t, receipt.Accepted, receipt.Message)

	receipt = registrantA.submit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidateA.String())
	require.ErrorIs(t, receipt.Err, ErrVotingPhaseClosed)

	election := readElection(t, l, addr)
	require.Equal(t, types.Election{
		Initiator:          initiator.id,
		CandidateThreshold: 2,
		TotalCandidate:     2,
		Phase:              types.VotingClosedPhase,
	}, election)
}

func TestScenario_VoterPerElection(t *testing.T) {
	l := newLedger(t)

	initiator := newUser(t, l)
	registrant := newUser(t, l)
	voter := newUser(t, l)

	candidates := make([]slot.Address, 2)

	for i := range candidates {
		addr, salt := initiator.newElection(t)

		initiator.mustSubmit(t, CmdInitialize, ElectionArg, addr.String(),
			SaltArg, salt, ThresholdArg, "1")
		registrant.mustSubmit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "A")
		initiator.mustSubmit(t, CmdChangePhase, ElectionArg, addr.String(), PhaseArg, "VotingOpenPhase")

		var err error
		candidates[i], err = CandidateAddress(addr, registrant.id, 0)
		require.NoError(t, err)

		voter.mustSubmit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidates[i].String())
	}

	for _, addr := range candidates {
		require.Equal(t, uint64(1), readCandidate(t, l, addr).TotalVotes)
	}
}

func TestScenario_RefusedInitialize(t *testing.T) {
	l := newLedger(t)

	initiator := newUser(t, l)

	addr, salt := initiator.newElection(t)

	receipt := initiator.submit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "0")
	require.ErrorIs(t, receipt.Err, ErrThresholdNotPositive)

	// The slot is still free.
	err := l.View(func(r store.Readable) error {
		_, err := GetElection(r, addr)
		require.ErrorIs(t, err, slot.ErrNotFound)

		return nil
	})
	require.NoError(t, err)

	initiator.mustSubmit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "1")

	receipt = initiator.submit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "3")
	require.ErrorIs(t, receipt.Err, slot.ErrExists)

	// Another identity cannot claim the address, even with the same salt.
	other := newUser(t, l)

	receipt = other.submit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "3")
	require.ErrorIs(t, receipt.Err, ErrInvalidArgument)
	require.Equal(t, types.Election{
		Initiator:          initiator.id,
		CandidateThreshold: 1,
		Phase:              types.RegisterPhase,
	}, readElection(t, l, addr))
}

func TestScenario_BallotSlotSquatting(t *testing.T) {
	l := newLedger(t)

	initiator := newUser(t, l)
	registrant := newUser(t, l)
	attacker := newUser(t, l)
	victim := newUser(t, l)

	addr, salt := initiator.newElection(t)

	initiator.mustSubmit(t, CmdInitialize, ElectionArg, addr.String(),
		SaltArg, salt, ThresholdArg, "1")
	registrant.mustSubmit(t, CmdRegister, ElectionArg, addr.String(), NameArg, "A")

	candidateAddr, err := CandidateAddress(addr, registrant.id, 0)
	require.NoError(t, err)

	victimAddr, err := VoterAddress(addr, victim.id)
	require.NoError(t, err)

	// The attacker tries to occupy the ballot slot of the victim before the
	// vote opens.
	receipt := attacker.submit(t, CmdInitialize, ElectionArg, victimAddr.String(),
		SaltArg, salt, ThresholdArg, "1")
	require.False(t, receipt.Accepted)
	require.ErrorIs(t, receipt.Err, ErrInvalidArgument)

	initiator.mustSubmit(t, CmdChangePhase, ElectionArg, addr.String(), PhaseArg, "VotingOpenPhase")

	receipt = victim.submit(t, CmdVote, ElectionArg, addr.String(), CandidateArg, candidateAddr.String())
	require.True(t, receipt.Accepted, receipt.Message)
	require.Equal(t, uint64(1), readCandidate(t, l, candidateAddr).TotalVotes)
}

// -----------------------------------------------------------------------------
// Utility functions

type user struct {
	id     []byte
	mgr    txn.Manager
	ledger *ledger.Ledger
}

func newUser(t *testing.T, l *ledger.Ledger) user {
	signer := ed25519.NewSigner()

	id, err := signer.GetPublicKey().MarshalBinary()
	require.NoError(t, err)

	return user{
		id:     id,
		mgr:    signed.NewManager(signer, l),
		ledger: l,
	}
}

func (u user) newElection(t *testing.T) (slot.Address, string) {
	addr, salt, err := NewElectionAddress(u.id)
	require.NoError(t, err)

	return addr, string(salt)
}

func (u user) submit(t *testing.T, cmd Command, args ...string) ledger.Receipt {
	txArgs := []txn.Arg{
		{Key: native.ContractArg, Value: []byte(ContractName)},
		{Key: CmdArg, Value: []byte(cmd)},
	}

	for i := 0; i+1 < len(args); i += 2 {
		txArgs = append(txArgs, txn.Arg{Key: args[i], Value: []byte(args[i+1])})
	}

	tx, err := u.mgr.Make(txArgs...)
	require.NoError(t, err)

	receipt, err := u.ledger.Submit(context.Background(), tx)
	require.NoError(t, err)

	return receipt
}

func (u user) mustSubmit(t *testing.T, cmd Command, args ...string) {
	receipt := u.submit(t, cmd, args...)
	require.True(t, receipt.Accepted, receipt.Message)
}

func newLedger(t *testing.T) *ledger.Ledger {
	db, err := kv.New(filepath.Join(t.TempDir(), "ballot.db"))
	require.NoError(t, err)

	t.Cleanup(func() { db.Close() })

	exec := native.NewExecution()
	RegisterContract(exec, NewContract())

	return ledger.NewLedger(db, exec)
}

func readElection(t *testing.T, l *ledger.Ledger, addr slot.Address) types.Election {
	var election types.Election

	err := l.View(func(r store.Readable) error {
		var err error
		election, err = GetElection(r, addr)
		return err
	})
	require.NoError(t, err)

	return election
}

func readCandidate(t *testing.T, l *ledger.Ledger, addr slot.Address) types.Candidate {
	var candidate types.Candidate

	err := l.View(func(r store.Readable) error {
		var err error
		candidate, err = GetCandidate(r, addr)
		return err
	})
	require.NoError(t, err)

	return candidate
}
