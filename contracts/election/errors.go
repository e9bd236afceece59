package election

import (
	"fmt"
)

// Code is the name of a failure of the election contract.
type Code string

const (
	// CodeThresholdNotPositive is returned when an election is initialized
	// without room for a single candidate.
	CodeThresholdNotPositive Code = "CandidateThresholdShouldBeGreaterThanZero"

	// CodeRegisterPhaseClosed is returned when a candidate registers outside of
	// the register phase.
	CodeRegisterPhaseClosed Code = "RegisterPhaseIsClosed"

	// CodeCandidateFull is returned when the threshold of candidates is
	// reached.
	CodeCandidateFull Code = "CandidateIsFull"

	// CodeVotingPhaseClosed is returned when a vote is cast outside of the
	// voting phase.
	CodeVotingPhaseClosed Code = "VotingPhaseIsClosed"

	// CodeUnauthorized is returned when the phase is changed by another
	// identity than the initiator.
	CodeUnauthorized Code = "Unauthorized"

	// CodeCandidateNotInElection is returned when the candidate of a vote does
	// not belong to the election.
	CodeCandidateNotInElection Code = "CandidateNotInElection"

	// CodeInvalidArgument is returned when an argument of the transaction is
	// missing or malformed.
	CodeInvalidArgument Code = "InvalidArgument"
)

var (
	// ErrThresholdNotPositive matches the errors of the same code.
	ErrThresholdNotPositive = Error{Code: CodeThresholdNotPositive}

	// ErrRegisterPhaseClosed matches the errors of the same code.
	ErrRegisterPhaseClosed = Error{Code: CodeRegisterPhaseClosed}

	// ErrCandidateFull matches the errors of the same code.
	ErrCandidateFull = Error{Code: CodeCandidateFull}

	// ErrVotingPhaseClosed matches the errors of the same code.
	ErrVotingPhaseClosed = Error{Code: CodeVotingPhaseClosed}

	// ErrUnauthorized matches the errors of the same code.
	ErrUnauthorized = Error{Code: CodeUnauthorized}

	// ErrCandidateNotInElection matches the errors of the same code.
	ErrCandidateNotInElection = Error{Code: CodeCandidateNotInElection}

	// ErrInvalidArgument matches the errors of the same code.
	ErrInvalidArgument = Error{Code: CodeInvalidArgument}
)

// Error is a failure of the contract with a named code and a message for
// humans. Two errors are equivalent when they have the same code.
type Error struct {
	Code Code
	Msg  string
}

func newError(code Code, format string, args ...interface{}) Error {
	return Error{
		Code: code,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// Error implements error.
func (e Error) Error() string {
	if e.Msg == "" {
		return string(e.Code)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// Is returns true when the target is an error of the same code.
func (e Error) Is(target error) bool {
	other, ok := target.(Error)

	return ok && other.Code == e.Code
}
