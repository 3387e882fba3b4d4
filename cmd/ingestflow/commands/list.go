package commands

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/alecthomas/kingpin/v2"

	"github.com/abeauvois/ingestflow/pkg/api"
	"github.com/abeauvois/ingestflow/pkg/client"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	preset string
	status string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List tasks.")
	c.Cmd.Flag("preset", "Only tasks for this preset.").StringVar(&c.preset)
	c.Cmd.Flag("status", "Only tasks in this status.").EnumVar(&c.status,
		string(api.StatusPending), string(api.StatusRunning),
		string(api.StatusCompleted), string(api.StatusFailed))

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	remote := client.NewHTTPTaskAPI(c.rootCmd.ServerURL, nil)

	tasks, err := remote.ListTasks(ctx, api.TaskListOptions{
		Preset: c.preset,
		Status: api.Status(c.status),
	})
	if err != nil {
		return fmt.Errorf("could not list tasks: %w", err)
	}

	w := tabwriter.NewWriter(c.rootCmd.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tSTATUS\tPROGRESS\tMESSAGE")
	for _, t := range tasks {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d%%\t%s\n", t.ID, t.Preset, t.Status, t.Progress, t.Message)
	}
	return w.Flush()
}
