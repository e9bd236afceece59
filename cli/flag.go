package cli

import "time"

// Each flag can be read from environment variables when it is not set on the
// command line. The first variable that is set wins.

// StringFlag is a flag parsed as a string.
//
// - implements cli.Flag
type StringFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    string
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag StringFlag) Flag() {}

// StringSliceFlag is a flag that can be repeated. Every occurrence adds a
// string to the slice.
//
// - implements cli.Flag
type StringSliceFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    []string
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag StringSliceFlag) Flag() {}

// DurationFlag is a flag parsed as a duration like "10s" or "1m30s".
//
// - implements cli.Flag
type DurationFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    time.Duration
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag DurationFlag) Flag() {}

// IntFlag is a flag parsed as a decimal integer.
//
// - implements cli.Flag
type IntFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    int
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag IntFlag) Flag() {}

// BoolFlag is a flag set to true by its presence.
//
// - implements cli.Flag
type BoolFlag struct {
	Name     string
	Usage    string
	Required bool
	Value    bool
	EnvVars  []string
}

// Flag implements cli.Flag.
func (flag BoolFlag) Flag() {}
