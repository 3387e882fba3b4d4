package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/abeauvois/ingestflow/pkg/client"
)

type StatusCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	taskID string
	format string
}

// NewStatusCommand returns the status command.
func NewStatusCommand(rootCmd *RootCommand, app *kingpin.Application) *StatusCommand {
	c := &StatusCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("status", "Get the state of a task.")
	c.Cmd.Arg("task-id", "Task ID.").Required().StringVar(&c.taskID)
	c.Cmd.Flag("format", "Output format (text, json).").Default("text").EnumVar(&c.format, "text", "json")

	return c
}

func (c StatusCommand) Name() string { return c.Cmd.FullCommand() }

func (c StatusCommand) Run(ctx context.Context) error {
	remote := client.NewHTTPTaskAPI(c.rootCmd.ServerURL, nil)

	task, err := remote.GetTask(ctx, c.taskID)
	if err != nil {
		return fmt.Errorf("could not get task: %w", err)
	}

	if c.format == "json" {
		enc := json.NewEncoder(c.rootCmd.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(client.NewTaskDTO(task))
	}

	fmt.Fprintf(c.rootCmd.Stdout, "task:     %s\n", task.ID)
	fmt.Fprintf(c.rootCmd.Stdout, "preset:   %s\n", task.Preset)
	fmt.Fprintf(c.rootCmd.Stdout, "status:   %s\n", task.Status)
	fmt.Fprintf(c.rootCmd.Stdout, "progress: %d%%\n", task.Progress)
	fmt.Fprintf(c.rootCmd.Stdout, "message:  %s\n", task.Message)
	if task.CurrentStep != nil {
		fmt.Fprintf(c.rootCmd.Stdout, "step:     %s\n", *task.CurrentStep)
	}
	if task.ItemProgress != nil {
		fmt.Fprintf(c.rootCmd.Stdout, "items:    %d/%d\n", task.ItemProgress.Current, task.ItemProgress.Total)
	}
	if task.Result != nil {
		fmt.Fprintf(c.rootCmd.Stdout, "result:   %d processed, %d created, %d errors\n",
			task.Result.ItemsProcessed, task.Result.ItemsCreated, len(task.Result.Errors))
	}

	return nil
}
