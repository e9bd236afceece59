// Package node defines the Builder type, which builds a CLI application where
// the actions run against the components of the ledger.
//
// The components are started by the initializers before an action is
// executed, and stopped in the reverse order once it is done. An action is
// written as a template that resolves the components it needs from the
// injector. See the example.
package node

import (
	"io"

	"go.dedis.ch/ballot/cli"
)

// Builder is the builder that will be provided to the initializers, which can
// create commands and actions.
type Builder interface {
	cli.Provider

	// MakeAction creates a CLI action from a given template. The components
	// are available to the template through the injector.
	MakeAction(ActionTemplate) cli.Action
}

// ActionTemplate is an extension of the cli.Action interface to allow an action
// to use the components of the initializers.
type ActionTemplate interface {
	// Execute processes a command received from the CLI.
	Execute(Context) error
}

// Context is the context available to the action when being invoked. It
// provides the dependency injector alongside with the input and output.
type Context struct {
	Injector Injector
	Flags    cli.Flags
	Out      io.Writer
}

// Injector is a dependency injection abstraction.
type Injector interface {
	// Resolve populates the input with the dependency if any compatible exists.
	Resolve(interface{}) error

	// Inject stores the dependency to be resolved later on.
	Inject(interface{})
}

// Initializer is the interface that a module can implement to set its own
// commands and inject the dependencies that will be resolved in the actions.
type Initializer interface {
	// SetCommands populates the builder with the commands of the controller.
	SetCommands(Builder)

	// OnStart starts the components of the initializer and populates the
	// injector.
	OnStart(cli.Flags, Injector) error

	// OnStop stops the components and cleans the resources.
	OnStop(Injector) error
}
