package node

import (
	"fmt"
	"os"

	"go.dedis.ch/ballot/cli"
)

func ExampleCLIBuilder_Build() {
	builder := NewBuilder(exampleController{})

	app := builder.Build()

	err := app.Run([]string{os.Args[0], "hello", "--name", "Alice"})
	if err != nil {
		panic("app failed: " + err.Error())
	}

	// Output: Hello, Alice!
}

// Hello is an example of a component that can be injected and resolved by the
// actions.
type Hello interface {
	SayTo(name string)
}

type simpleHello struct{}

func (simpleHello) SayTo(name string) {
	fmt.Printf("Hello, %s!", name)
}

// helloAction is an example of an action template.
//
// - implements node.ActionTemplate
type helloAction struct{}

// Execute implements node.ActionTemplate. It resolves the hello component and
// say hello to the name defined by the flag.
func (tmpl helloAction) Execute(ctx Context) error {
	var hello Hello
	err := ctx.Injector.Resolve(&hello)
	if err != nil {
		return err
	}

	hello.SayTo(ctx.Flags.String("name"))

	return nil
}

// exampleController is an example of a controller passed to the builder. It
// defines the hello command and injects the component it uses.
//
// - implements node.Initializer
type exampleController struct{}

// SetCommands implements node.Initializer. It defines the hello command.
func (exampleController) SetCommands(builder Builder) {
	cmd := builder.SetCommand("hello")
	cmd.SetDescription("say hello")
	cmd.SetFlags(cli.StringFlag{
		Name:  "name",
		Usage: "set the name",
		Value: "Bob",
	})
	cmd.SetAction(builder.MakeAction(helloAction{}))
}

// OnStart implements node.Initializer. It injects the hello component.
func (exampleController) OnStart(flags cli.Flags, inj Injector) error {
	inj.Inject(simpleHello{})

	return nil
}

// OnStop implements node.Initializer.
func (exampleController) OnStop(Injector) error {
	return nil
}
