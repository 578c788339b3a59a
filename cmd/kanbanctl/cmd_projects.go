package main

import (
	"github.com/spf13/cobra"

	"github.com/p-blackswan/kanban-board/internal/models"
)

func (c *cli) projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List and create projects",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := c.client().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			return c.print(projects)
		},
	}

	var description string
	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := c.client().CreateProject(cmd.Context(), models.CreateProjectInput{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			return c.print(p)
		},
	}
	create.Flags().StringVarP(&description, "description", "d", "", "project description")

	cmd.AddCommand(list, create)
	return cmd
}
