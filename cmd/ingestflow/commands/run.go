package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/abeauvois/ingestflow/pkg/client"
	"github.com/abeauvois/ingestflow/pkg/log"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	preset  string
	userID  string
	items   []string
	options map[string]string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd, options: map[string]string{}}

	c.Cmd = app.Command("run", "Submit a task and watch it to completion.")
	c.Cmd.Arg("preset", "Preset to run (e.g. gmail).").Required().StringVar(&c.preset)
	c.Cmd.Flag("user", "User the task runs for.").Required().StringVar(&c.userID)
	c.Cmd.Flag("item", "Item to process; repeatable.").StringsVar(&c.items)
	c.Cmd.Flag("option", "Extra preset option as key=value; repeatable.").StringMapVar(&c.options)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	options := map[string]any{"userId": c.userID}
	for k, v := range c.options {
		options[k] = v
	}
	if len(c.items) > 0 {
		items := make([]any, 0, len(c.items))
		for _, it := range c.items {
			items = append(items, it)
		}
		options["items"] = items
	}

	d := client.New(client.NewHTTPTaskAPI(c.rootCmd.ServerURL, nil), client.Config{
		Preset:  c.preset,
		Options: options,
		Logger:  logger,
	})

	res, err := d.Execute(ctx, client.Hooks{
		OnStart: func(logger log.Logger) {
			logger.StartProgress("Running %s", c.preset)
		},
		OnItemProcessed: func(logger log.Logger, u client.ItemUpdate) {
			logger.Debugf("processed item %d/%d (%s)", u.Index+1, u.Total, u.Step)
		},
		OnComplete: func(logger log.Logger, res client.Result) {
			logger.StopProgress()
		},
		OnError: func(logger log.Logger, err error) {
			logger.StopProgress()
		},
	})
	if err != nil {
		return fmt.Errorf("run failed: %w", err)
	}

	fmt.Fprintf(c.rootCmd.Stdout, "task %s completed: %d items processed, %d created, %d errors (%s)\n",
		res.TaskID, res.ItemsProcessed, res.ItemsCreated, len(res.Errors), res.Duration.Round(time.Millisecond))
	for _, e := range res.Errors {
		fmt.Fprintf(c.rootCmd.Stdout, "  error: %s\n", e)
	}

	return nil
}
