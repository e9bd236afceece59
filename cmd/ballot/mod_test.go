package main

import (
	"bytes"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestBallot_Run(t *testing.T) {
	err := run([]string{"ballot", "--help"})
	require.NoError(t, err)
}

func TestBallot_Scenario(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "ballot.db")

	owner := newKey(t, dir, "owner")
	alice := newKey(t, dir, "alice")
	bob := newKey(t, dir, "bob")

	out := exec(t, "--db", db, "election", "init", "--key", owner,
		"--threshold", "2", "--salt", "first")
	require.Regexp(t, "^accepted [0-9a-f]+\nelection: [0-9a-f]{64}\n$", out)

	addr := strings.TrimPrefix(strings.Split(out, "\n")[1], "election: ")

	// The address is derived from the owner and the salt.
	out = exec(t, "--db", db, "election", "init", "--key", owner,
		"--threshold", "3", "--salt", "first")
	require.Regexp(t, "^rejected [0-9a-f]+: .*slot already exists", out)

	out = exec(t, "--db", db, "election", "init", "--key", alice,
		"--threshold", "3", "--salt", "first")
	require.Regexp(t, "^accepted ", out)
	require.NotContains(t, out, addr)

	out = exec(t, "--db", db, "election", "register", "--key", alice,
		"--election", addr, "--name", "Alice")

	match := regexp.MustCompile("candidate: ([0-9a-f]{64})\n$").FindStringSubmatch(out)
	require.Len(t, match, 2)

	candidate := match[1]

	out = exec(t, "--db", db, "election", "vote", "--key", bob,
		"--election", addr, "--candidate", candidate)
	require.Regexp(t, "^rejected [0-9a-f]+: .*VotingPhaseIsClosed", out)

	out = exec(t, "--db", db, "election", "phase", "--key", owner,
		"--election", addr, "--phase", "VotingOpenPhase")
	require.Regexp(t, "^accepted ", out)

	out = exec(t, "--db", db, "election", "vote", "--key", bob,
		"--election", addr, "--candidate", candidate)
	require.Regexp(t, "^accepted ", out)

	// The database can be given by the environment.
	t.Setenv("BALLOT_DB", db)

	// The rejected ballot consumed a nonce as well.
	out = exec(t, "ledger", "nonce", "--key", bob)
	require.Equal(t, "2\n", out)

	bobID := strings.TrimSpace(exec(t, "ed25519", "signer", "read", "--path", bob))

	out = exec(t, "election", "show", "--election", addr,
		"--candidate", candidate, "--voter", bobID)
	require.Contains(t, out, `"name": "Alice"`)
	require.Contains(t, out, `"totalVotes": 1`)
	require.Contains(t, out, `"selectedCandidateId": 1`)
}

func TestBallot_MissingFlag(t *testing.T) {
	err := runWithCfg([]string{"ballot", "election", "init"}, new(bytes.Buffer))
	require.Error(t, err)
	require.Contains(t, err.Error(), "Required flag")
}

// -----------------------------------------------------------------------------
// Utility functions

func newKey(t *testing.T, dir, name string) string {
	path := filepath.Join(dir, name+".key")

	exec(t, "ed25519", "signer", "new", "--save", path)

	return path
}

func exec(t *testing.T, args ...string) string {
	out := new(bytes.Buffer)

	err := runWithCfg(append([]string{"ballot"}, args...), out)
	require.NoError(t, err)

	return out.String()
}
