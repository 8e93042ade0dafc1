package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/model"
	"taskflow/internal/service"
)

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List tasks",
	Long:    "List the tasks of one view (today, upcoming, all, completed, archive), optionally narrowed by a search",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rawView, _ := cmd.Flags().GetString("view")
		query, _ := cmd.Flags().GetString("search")
		asJSON, _ := cmd.Flags().GetBool("json")

		view, err := service.ParseView(rawView)
		if err != nil {
			return err
		}

		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		tasks := w.tasks.View(view, query)
		out := cmd.OutOrStdout()
		if asJSON {
			return writeJSON(out, tasks)
		}

		header := headerStyle.Render(string(view))
		if view == service.ViewToday {
			header += "  " + mutedStyle.Render(w.tasks.Progress().String())
		}
		fmt.Fprintln(out, header)
		if len(tasks) == 0 {
			fmt.Fprintln(out, mutedStyle.Render("No tasks found."))
			return nil
		}
		printTasks(out, tasks, w.categories.Names(), w.now())
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Add a task",
	Long:  "Add a task. Without --due the task is due now; --no-due leaves it undated.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		description, _ := cmd.Flags().GetString("description")
		categoryRef, _ := cmd.Flags().GetString("category")
		rawPriority, _ := cmd.Flags().GetString("priority")
		rawDue, _ := cmd.Flags().GetString("due")
		noDue, _ := cmd.Flags().GetBool("no-due")

		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		in := service.TaskInput{
			Title:       args[0],
			Description: description,
			NoDueDate:   noDue,
		}
		if categoryRef != "" {
			id, err := w.resolveCategory(categoryRef)
			if err != nil {
				return err
			}
			in.CategoryID = &id
		}
		if rawPriority != "" {
			p, err := model.ParsePriority(rawPriority)
			if err != nil {
				return err
			}
			in.Priority = p
		}
		if rawDue != "" && !noDue {
			due, err := service.ParseDueDate(rawDue, w.now())
			if err != nil {
				return err
			}
			in.DueDate = &due
		}

		task, err := w.tasks.Create(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created task %s: %s\n", task.ID, task.Title)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <task-id>",
	Short: "Edit a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(cmd, false)
		if err != nil {
			return err
		}
		defer w.Close()

		id, err := w.resolveTask(args[0])
		if err != nil {
			return err
		}
		patch, err := taskPatchFromFlags(cmd, w)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: pass at least one flag")
		}

		task, err := w.tasks.Update(cmd.Context(), id, patch)
		if err != nil {
			return err
		}
		printTasks(cmd.OutOrStdout(), []model.Task{task}, w.categories.Names(), w.now())
		return nil
	},
}

func taskPatchFromFlags(cmd *cobra.Command, w *workspace) (model.TaskPatch, error) {
	var patch model.TaskPatch
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		patch.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		patch.Description = &v
	}
	if flags.Changed("priority") {
		v, _ := flags.GetString("priority")
		p, err := model.ParsePriority(v)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}

	noCategory, _ := flags.GetBool("no-category")
	switch {
	case noCategory:
		patch.CategoryID = model.Clear[string]()
	case flags.Changed("category"):
		ref, _ := flags.GetString("category")
		id, err := w.resolveCategory(ref)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = model.Set(id)
	}

	noDue, _ := flags.GetBool("no-due")
	switch {
	case noDue:
		patch.DueDate = model.Clear[time.Time]()
	case flags.Changed("due"):
		raw, _ := flags.GetString("due")
		due, err := service.ParseDueDate(raw, w.now())
		if err != nil {
			return patch, err
		}
		patch.DueDate = model.Set(due)
	}
	return patch, nil
}

// taskAction builds a command that runs one coordinator operation on a task.
func taskAction(use, short string, run func(cmd *cobra.Command, w *workspace, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			yes, _ := cmd.Flags().GetBool("yes")
			w, err := openWorkspace(cmd, yes)
			if err != nil {
				return err
			}
			defer w.Close()

			id, err := w.resolveTask(args[0])
			if err != nil {
				return err
			}
			return run(cmd, w, id)
		},
	}
}

var doneCmd = taskAction("done", "Toggle a task between completed and open", func(cmd *cobra.Command, w *workspace, id string) error {
	_, err := w.tasks.ToggleComplete(cmd.Context(), id)
	return err
})

var archiveCmd = taskAction("archive", "Move a task to the archive", func(cmd *cobra.Command, w *workspace, id string) error {
	_, err := w.tasks.Archive(cmd.Context(), id)
	return err
})

var restoreCmd = taskAction("restore", "Bring an archived task back as open", func(cmd *cobra.Command, w *workspace, id string) error {
	_, err := w.tasks.Restore(cmd.Context(), id)
	return err
})

var removeCmd = taskAction("rm", "Permanently delete a task", func(cmd *cobra.Command, w *workspace, id string) error {
	return cancelledIsOK(cmd, w.tasks.Delete(cmd.Context(), id))
})

// cancelledIsOK turns a declined confirmation into a plain message.
func cancelledIsOK(cmd *cobra.Command, err error) error {
	if errors.Is(err, service.ErrCancelled) {
		fmt.Fprintln(cmd.OutOrStdout(), mutedStyle.Render("Cancelled."))
		return nil
	}
	return err
}

func init() {
	listCmd.Flags().StringP("view", "v", string(service.ViewAll), "today, upcoming, all, completed or archive")
	listCmd.Flags().StringP("search", "s", "", "Only tasks whose title or description contains this text")
	listCmd.Flags().Bool("json", false, "Print tasks as JSON")

	addCmd.Flags().StringP("description", "d", "", "Task description")
	addCmd.Flags().StringP("category", "c", "", "Category id or name")
	addCmd.Flags().StringP("priority", "p", "", "low, medium or high (default medium)")
	addCmd.Flags().String("due", "", "Due date: YYYY-MM-DD, today, tomorrow or +Nd (default now)")
	addCmd.Flags().Bool("no-due", false, "Create the task without a due date")

	editCmd.Flags().String("title", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New description")
	editCmd.Flags().StringP("category", "c", "", "Category id or name")
	editCmd.Flags().Bool("no-category", false, "Remove the category")
	editCmd.Flags().StringP("priority", "p", "", "low, medium or high")
	editCmd.Flags().String("due", "", "Due date: YYYY-MM-DD, today, tomorrow or +Nd")
	editCmd.Flags().Bool("no-due", false, "Remove the due date")
	editCmd.MarkFlagsMutuallyExclusive("category", "no-category")
	editCmd.MarkFlagsMutuallyExclusive("due", "no-due")

	removeCmd.Flags().BoolP("yes", "y", false, "Delete without asking")
}
