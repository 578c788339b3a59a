package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/kanban-board/internal/board"
	"github.com/p-blackswan/kanban-board/internal/qa"
)

func (c *cli) qaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "qa",
		Short: "Answer the questionnaire that gates design generation",
	}

	categories := &cobra.Command{
		Use:   "categories",
		Short: "List question categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := c.client().ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(cats)
		},
	}

	questions := &cobra.Command{
		Use:   "questions <category>",
		Short: "Show the questions of a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := qa.ValidateCategory(args[0])
			if err != nil {
				return err
			}
			tmpl, err := c.client().GetTemplate(cmd.Context(), category)
			if err != nil {
				return err
			}
			return c.print(tmpl)
		},
	}

	show := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show the Q&A session of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := c.client().GetQA(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(sess)
		},
	}

	var (
		category string
		answers  []string
		complete bool
	)
	answer := &cobra.Command{
		Use:   "answer <task-id>",
		Short: "Record answers, optionally completing the session and generating the design",
		Example: `  kanbanctl qa answer T1 --category economy -a core_currency="Gold coins"
  kanbanctl qa answer T1 --category economy --complete`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			taskID := args[0]

			cat, err := qa.ValidateCategory(category)
			if err != nil {
				return err
			}
			stepper := board.NewStepper(c.client())
			if err := stepper.Start(ctx, taskID, cat); err != nil {
				return err
			}
			for _, a := range answers {
				id, value, ok := strings.Cut(a, "=")
				if !ok || strings.TrimSpace(id) == "" {
					return fmt.Errorf("answer %q must look like <question-id>=<text>", a)
				}
				stepper.SetAnswer(strings.TrimSpace(id), value)
			}

			if complete {
				t, err := stepper.Complete(ctx, taskID)
				if err != nil {
					return err
				}
				return c.print(t)
			}
			sess, err := stepper.Save(ctx, taskID, false)
			if err != nil {
				return err
			}
			return c.print(sess)
		},
	}
	answer.Flags().StringVarP(&category, "category", "c", "", "question category (required)")
	answer.Flags().StringArrayVarP(&answers, "answer", "a", nil, "answer as <question-id>=<text> (repeatable)")
	answer.Flags().BoolVar(&complete, "complete", false, "complete the session and generate the design document")
	_ = answer.MarkFlagRequired("category")

	cmd.AddCommand(categories, questions, show, answer)
	return cmd
}
