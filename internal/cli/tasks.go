package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/todo-app/internal/client"
	"github.com/BuzzLyutic/todo-app/internal/controller"
	"github.com/BuzzLyutic/todo-app/internal/model"
)

func newListCmd(app *App) *cobra.Command {
	var filter, search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := controller.ParseFilter(filter)
			if err != nil {
				return err
			}

			ctrl := controller.New(app.api, app.logger, app.PollInterval)
			if err := ctrl.Load(cmd.Context()); err != nil {
				return describe(err)
			}
			ctrl.SetSearch(search)
			ctrl.SetFilter(f)

			tasks := ctrl.Filtered()
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), tasks)
			}
			return writeTasks(cmd.OutOrStdout(), tasks)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "all", "all, pending or completed")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive text search")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add TEXT...",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := app.api.CreateTask(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return describe(err)
			}
			return app.printTask(cmd.OutOrStdout(), "Created", task)
		},
	}
}

func newDoneCmd(app *App, completed bool) *cobra.Command {
	use, short, verb := "done ID", "Mark a task completed", "Completed"
	if !completed {
		use, short, verb = "undo ID", "Mark a task pending", "Reopened"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := app.api.UpdateTask(cmd.Context(), id, model.TaskPatch{Completed: &completed})
			if err != nil {
				return describe(err)
			}
			return app.printTask(cmd.OutOrStdout(), verb, task)
		},
	}
}

func newRmCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := app.api.DeleteTask(cmd.Context(), id); err != nil {
				return describe(err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), map[string]int64{"deleted": id})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d\n", id)
			return err
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.api.Stats(cmd.Context())
			if err != nil {
				return describe(err)
			}
			if app.JSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "total: %d\ncompleted: %d\npending: %d\n",
				stats.Total, stats.Completed, stats.Pending)
			return err
		},
	}
}

func newHealthCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the API is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.api.Health(cmd.Context()) {
				return fmt.Errorf("API at %s is offline", app.APIURL)
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "API at %s is online\n", app.APIURL)
			return err
		},
	}
}

func (a *App) printTask(w io.Writer, verb string, t model.Task) error {
	if a.JSON {
		return writeJSON(w, t)
	}
	_, err := fmt.Fprintf(w, "%s %d: %s\n", verb, t.ID, t.Text)
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid task ID %q", s)
	}
	return id, nil
}

// Показываем сообщение сервера, а не обертку клиента
func describe(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return errors.New(apiErr.Message)
	}
	return err
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTasks(w io.Writer, tasks []model.Task) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTEXT\tCREATED")
	for _, t := range tasks {
		done := " "
		if t.Completed {
			done = "x"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\n", t.ID, done, t.Text, t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
