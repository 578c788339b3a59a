package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/p-blackswan/kanban-board/internal/tasks"
)

func (c *cli) archivesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "archives",
		Short: "Archive finished tasks and bring them back",
	}

	archive := &cobra.Command{
		Use:   "add <task-id>",
		Short: "Archive a prototype task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.client().ArchiveTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(a)
		},
	}

	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the archives of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := c.client().ListArchives(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(list)
		},
	}

	restore := &cobra.Command{
		Use:   "restore <project-id> <archive-id>",
		Short: "Put an archived task back on the board",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.client().RestoreArchive(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return c.print(t)
		},
	}

	remove := &cobra.Command{
		Use:   "delete <project-id> <archive-id>",
		Short: "Delete an archive and its task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client().DeleteArchive(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "deleted %s\n", args[1])
			return nil
		},
	}

	cmd.AddCommand(archive, list, restore, remove)
	return cmd
}

func (c *cli) completedCmd() *cobra.Command {
	var (
		search, docType, ref string
		limit, offset        string
		noArchived           bool
	)
	cmd := &cobra.Command{
		Use:   "completed <project-id> [task-id]",
		Short: "Browse finished documents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			api := c.client()
			if len(args) == 2 {
				doc, err := api.CompletedDocument(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				return c.print(doc)
			}
			q := tasks.ParseCompletedQuery(search, docType, ref, fmt.Sprint(!noArchived), limit, offset)
			docs, err := api.CompletedDocuments(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return c.print(docs)
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "keyword in title or documents")
	cmd.Flags().StringVar(&docType, "type", "", "comma-separated document types (design,prd,prototype)")
	cmd.Flags().StringVar(&ref, "ref", "", "comma-separated references")
	cmd.Flags().StringVar(&limit, "limit", "", "page size")
	cmd.Flags().StringVar(&offset, "offset", "", "page offset")
	cmd.Flags().BoolVar(&noArchived, "no-archived", false, "leave archived tasks out")
	return cmd
}
