package ucli

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	urfave "github.com/urfave/cli/v2"
	"go.dedis.ch/ballot/cli"
)

func TestBuild(t *testing.T) {
	builder := NewBuilder("test", nil)
	builder.(*Builder).SetUsage("test application")

	app := builder.Build().(*urfave.App)

	app.Writer = io.Discard

	require.Equal(t, "test", app.Name)
	require.Equal(t, "test application", app.Usage)

	err := app.Run([]string{"test"})
	require.NoError(t, err)
}

func TestSetCommand(t *testing.T) {
	builder := NewBuilder("test", nil)

	builder.SetCommand("first")
	builder.SetCommand("second")

	app := builder.Build().(*urfave.App)

	require.Len(t, app.Commands, 3)

	require.Equal(t, "first", app.Commands[0].Name)
	require.Equal(t, "second", app.Commands[1].Name)
	require.Equal(t, "help", app.Commands[2].Name)

}

func TestCommandBuilder(t *testing.T) {
	builder := NewBuilder("test", nil).(*Builder)
	cmd := builder.SetCommand("first")

	fakeAction := func(flags cli.Flags) error {
		return nil
	}

	cmd.SetAction(fakeAction)
	cmd.SetDescription("first action")
	cmd.SetFlags(cli.StringFlag{
		Name:     "arg",
		Usage:    "this is a test arg",
		Required: true,
		Value:    "default",
	})
	cmd.SetSubCommand("second")

	require.Len(t, builder.commands, 1)
	require.Len(t, builder.flags, 0)

	cmd2 := builder.commands[0]
	require.Len(t, cmd2.flags, 1)
	require.Len(t, cmd2.subcommands, 1)
}

func TestBuildFlags(t *testing.T) {
	in := []cli.Flag{
		cli.StringFlag{
			Name:     "name1",
			Usage:    "usage1",
			Required: true,
			Value:    "value1",
		},
		cli.StringSliceFlag{
			Name:     "name2",
			Usage:    "usage2",
			Required: true,
			Value:    []string{},
		},
		cli.DurationFlag{
			Name:     "name3",
			Usage:    "usage3",
			Required: true,
			Value:    time.Minute,
		},
		cli.IntFlag{
			Name:     "name4",
			Usage:    "usage4",
			Required: true,
			Value:    1,
		},
		cli.BoolFlag{
			Name:     "name5",
			Usage:    "usage5",
			Required: true,
			Value:    true,
		},
	}

	out := buildFlags(in)
	require.Len(t, out, 5)

	require.Equal(t, "name1", out[0].Names()[0])
	require.Equal(t, "name2", out[1].Names()[0])
	require.Equal(t, "name3", out[2].Names()[0])
	require.Equal(t, "name4", out[3].Names()[0])
	require.Equal(t, "name5", out[4].Names()[0])
}

func TestBuildFlags_Panic(t *testing.T) {
	defer func() {
		r := recover()
		require.Equal(t, "flag type '<nil>' not supported", r)
	}()

	buildFlags([]cli.Flag{nil})
}

func TestMakeAction(t *testing.T) {
	res := makeAction(nil)
	require.Nil(t, res)

	isCalled := false
	fakeAction := func(flags cli.Flags) error {
		require.Nil(t, flags)
		isCalled = true
		return nil
	}

	res = makeAction(fakeAction)
	require.NotNil(t, res)

	out := res(nil)
	require.NoError(t, out)
	require.True(t, isCalled)
}

func TestRun_SubCommandFlags(t *testing.T) {
	builder := NewBuilder("test", nil, cli.StringFlag{Name: "config"})

	var received []string

	cmd := builder.SetCommand("election")
	sub := cmd.SetSubCommand("vote")
	sub.SetFlags(
		cli.StringFlag{Name: "election", Required: true},
		cli.StringSliceFlag{Name: "tag"},
		cli.BoolFlag{Name: "quiet"},
		cli.IntFlag{Name: "count", Value: 3},
	)
	sub.SetAction(func(flags cli.Flags) error {
		received = append(received, flags.String("config"), flags.String("election"))
		received = append(received, flags.StringSlice("tag")...)

		require.True(t, flags.Bool("quiet"))
		require.Equal(t, 3, flags.Int("count"))

		return nil
	})

	app := builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err := app.Run([]string{"test", "--config", "ballot.yaml", "election", "vote",
		"--election", "abc", "--tag", "a", "--tag", "b", "--quiet"})
	require.NoError(t, err)
	require.Equal(t, []string{"ballot.yaml", "abc", "a", "b"}, received)

	app = builder.Build().(*urfave.App)
	app.Writer = io.Discard
	app.ErrWriter = io.Discard

	err = app.Run([]string{"test", "election", "vote"})
	require.EqualError(t, err, `Required flag "election" not set`)
}

func TestRun_EnvVars(t *testing.T) {
	t.Setenv("TEST_DB", "/tmp/ballot.db")
	t.Setenv("TEST_TIMEOUT", "3s")

	var db string
	var timeout time.Duration

	builder := NewBuilder("test", nil,
		cli.StringFlag{Name: "db", EnvVars: []string{"TEST_DB"}})

	cmd := builder.SetCommand("serve")
	cmd.SetFlags(cli.DurationFlag{
		Name:    "timeout",
		Value:   time.Second,
		EnvVars: []string{"TEST_TIMEOUT"},
	})
	cmd.SetAction(func(flags cli.Flags) error {
		db = flags.String("db")
		timeout = flags.Duration("timeout")
		return nil
	})

	app := builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err := app.Run([]string{"test", "serve"})
	require.NoError(t, err)
	require.Equal(t, "/tmp/ballot.db", db)
	require.Equal(t, 3*time.Second, timeout)

	app = builder.Build().(*urfave.App)
	app.Writer = io.Discard

	err = app.Run([]string{"test", "--db", "other.db", "serve", "--timeout", "1m"})
	require.NoError(t, err)
	require.Equal(t, "other.db", db)
	require.Equal(t, time.Minute, timeout)
}
