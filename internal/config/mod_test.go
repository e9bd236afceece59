package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/node"
)

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)

	path := filepath.Join(t.TempDir(), "ballot.yaml")

	err = os.WriteFile(path, []byte("database: /tmp/test.db\nloglevel: debug\n"), 0600)
	require.NoError(t, err)

	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, Config{
		Database: "/tmp/test.db",
		Listen:   defaultListen,
		LogLevel: "debug",
	}, cfg)

	err = os.WriteFile(path, []byte("unknown: value\n"), 0600)
	require.NoError(t, err)

	_, err = Load(path)
	require.Error(t, err)
	require.Regexp(t, "^failed to parse config: ", err.Error())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.Regexp(t, "^failed to read config: ", err.Error())
}

func TestFromFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ballot.yaml")

	err := os.WriteFile(path, []byte("database: a.db\nlisten: :9000\n"), 0600)
	require.NoError(t, err)

	cfg, err := FromFlags(node.FlagSet{FileFlag: path})
	require.NoError(t, err)
	require.Equal(t, Config{Database: "a.db", Listen: ":9000"}, cfg)

	cfg, err = FromFlags(node.FlagSet{
		FileFlag:     path,
		DatabaseFlag: "b.db",
		LogLevelFlag: "warn",
	})
	require.NoError(t, err)
	require.Equal(t, Config{Database: "b.db", Listen: ":9000", LogLevel: "warn"}, cfg)

	cfg, err = FromFlags(node.FlagSet{ListenFlag: ":1234"})
	require.NoError(t, err)
	require.Equal(t, Config{Database: defaultDatabase, Listen: ":1234"}, cfg)

	_, err = FromFlags(node.FlagSet{FileFlag: "/do/not/exist.yaml"})
	require.Error(t, err)
}

func TestFlags(t *testing.T) {
	flags := Flags()
	require.Len(t, flags, 4)

	envs := make([]string, len(flags))
	for i, f := range flags {
		envs[i] = f.(cli.StringFlag).EnvVars[0]
	}

	require.Equal(t, []string{"BALLOT_CONFIG", "BALLOT_DB", "BALLOT_LISTEN", "BALLOT_LOGLEVEL"}, envs)
}
