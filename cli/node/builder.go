package node

import (
	"io"
	"os"

	"go.dedis.ch/ballot"
	"go.dedis.ch/ballot/cli"
	"go.dedis.ch/ballot/cli/ucli"
	"golang.org/x/xerrors"
)

// CLIBuilder is an application builder that runs the actions against the
// components of the initializers.
//
// - implements node.Builder
// - implements cli.Builder
type CLIBuilder struct {
	cli.Builder

	inits  []Initializer
	writer io.Writer
}

// NewBuilder returns a new empty builder.
func NewBuilder(inits ...Initializer) *CLIBuilder {
	return NewBuilderWithCfg("ballot", nil, nil, inits...)
}

// NewBuilderWithCfg returns a new empty builder with specific configurations.
// The flags are available to every command.
func NewBuilderWithCfg(name string, out io.Writer, flags []cli.Flag, inits ...Initializer) *CLIBuilder {
	if out == nil {
		out = os.Stdout
	}

	return &CLIBuilder{
		Builder: ucli.NewBuilder(name, nil, flags...),
		inits:   inits,
		writer:  out,
	}
}

// MakeAction implements node.Builder. It creates a CLI action that starts the
// components, executes the template and stops the components.
func (b *CLIBuilder) MakeAction(tmpl ActionTemplate) cli.Action {
	return func(flags cli.Flags) error {
		injector := NewInjector()

		for i, controller := range b.inits {
			err := controller.OnStart(flags, injector)
			if err != nil {
				b.stop(injector, i)

				return xerrors.Errorf("couldn't run the controller: %v", err)
			}
		}

		ctx := Context{
			Injector: injector,
			Flags:    flags,
			Out:      b.writer,
		}

		err := tmpl.Execute(ctx)

		stopErr := b.stop(injector, len(b.inits))

		if err != nil {
			return err
		}

		if stopErr != nil {
			return xerrors.Errorf("couldn't stop controller: %v", stopErr)
		}

		return nil
	}
}

// SetUsage sets the description of the application when the underlying
// builder supports it.
func (b *CLIBuilder) SetUsage(usage string) {
	u, ok := b.Builder.(interface{ SetUsage(string) })
	if ok {
		u.SetUsage(usage)
	}
}

// Build implements cli.Builder. It returns the application.
func (b *CLIBuilder) Build() cli.Application {
	for _, controller := range b.inits {
		controller.SetCommands(b)
	}

	return b.Builder.Build()
}

// stop stops the first n controllers in reverse order so that high level
// components are stopped before lower level ones. It returns the first error.
func (b *CLIBuilder) stop(injector Injector, n int) error {
	var first error

	for i := n - 1; i >= 0; i-- {
		err := b.inits[i].OnStop(injector)
		if err != nil {
			ballot.Logger.Warn().Err(err).Msg("controller failed to stop")

			if first == nil {
				first = err
			}
		}
	}

	return first
}
