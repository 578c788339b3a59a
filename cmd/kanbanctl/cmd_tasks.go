package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/kanban-board/internal/board"
	"github.com/p-blackswan/kanban-board/internal/models"
	"github.com/p-blackswan/kanban-board/internal/tasks"
)

func (c *cli) tasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with the tasks of a board",
	}

	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks on a board",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.client().ListTasks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(list)
		},
	}

	show := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.client().GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(t)
		},
	}

	var features string
	var refs []string
	create := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Add a task to the featurelist column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.client().CreateTask(cmd.Context(), args[0], models.CreateTaskInput{
				Title:       args[1],
				FeatureList: features,
				References:  refs,
			})
			if err != nil {
				return err
			}
			return c.print(t)
		},
	}
	create.Flags().StringVarP(&features, "features", "f", "", "feature list text")
	create.Flags().StringSliceVarP(&refs, "ref", "r", nil, "reference (repeatable)")

	move := &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task the way the board does",
		Long: `Move a task to another column.

Backward moves only change the status. Forward moves generate the
target document; featurelist -> design needs "kanbanctl qa answer".`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := tasks.ParseStatus("status", args[1])
			if err != nil {
				return err
			}
			return c.move(cmd, args[0], target)
		},
	}

	trigger := &cobra.Command{
		Use:   "trigger <task-id> <target-status>",
		Short: "Generate the document for a target status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.client().TriggerAI(cmd.Context(), args[0], models.TaskStatus(args[1]))
			if err != nil {
				return err
			}
			return c.print(t)
		},
	}

	history := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show the generation history of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := c.client().Generations(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(recs)
		},
	}

	remove := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, show, create, move, trigger, history, remove)
	return cmd
}

// move loads the task's board into a board store and applies the drag-and-drop rules.
func (c *cli) move(cmd *cobra.Command, taskID string, target models.TaskStatus) error {
	ctx := cmd.Context()
	api := c.client()

	t, err := api.GetTask(ctx, taskID)
	if err != nil {
		return err
	}

	s := board.New(api, c.logger())
	defer s.Close()
	if err := s.FetchTasks(ctx, t.ProjectID); err != nil {
		return err
	}

	if err := s.MoveTask(ctx, taskID, target); err != nil {
		if errors.Is(err, board.ErrQARequired) {
			return fmt.Errorf("task %s needs a completed Q&A session: run \"kanbanctl qa answer %s --category <category> --complete\"", taskID, taskID)
		}
		return err
	}

	moved, _ := s.Task(taskID)
	return c.print(moved)
}
