// Package commands contains the ingestflow CLI commands.
package commands

import (
	"context"
	"io"

	"github.com/alecthomas/kingpin/v2"

	"github.com/abeauvois/ingestflow/pkg/log"
)

// Logger types for the --logger flag.
const (
	LoggerTypeDefault = "default"
	LoggerTypeJSON    = "json"
)

// Command is the interface every CLI subcommand implements.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand carries the global flags and instances shared by all
// subcommands.
type RootCommand struct {
	// Global flags.
	Debug      bool
	NoLog      bool
	NoColor    bool
	LoggerType string
	ConfigPath string
	ServerURL  string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)
	app.Flag("config", "Path to the YAML configuration file.").Envar("INGESTFLOW_CONFIG").StringVar(&c.ConfigPath)
	app.Flag("server", "Base URL of the ingestflow server.").Envar("INGESTFLOW_SERVER").Default("http://localhost:8080").StringVar(&c.ServerURL)

	return c
}
