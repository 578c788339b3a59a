// Command kanbanctl drives a kanban board API from the terminal.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/p-blackswan/kanban-board/internal/client"
)

// cli holds the persistent flags shared by every subcommand.
type cli struct {
	baseURL string
	token   string
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:   "kanbanctl",
		Short: "Manage kanban boards and their design pipeline",
		Long: `kanbanctl talks to a kanban board API.

Tasks move featurelist -> design -> prd -> prototype. Moving a task into
design requires a completed Q&A session; use "kanbanctl qa answer" first.`,
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&c.baseURL, "url", envOr("KANBAN_URL", "http://localhost:3001"), "board API base URL (env KANBAN_URL)")
	root.PersistentFlags().StringVar(&c.token, "token", os.Getenv("KANBAN_TOKEN"), "bearer token (env KANBAN_TOKEN)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log requests to stderr")

	root.AddCommand(
		c.projectsCmd(),
		c.tasksCmd(),
		c.qaCmd(),
		c.archivesCmd(),
		c.completedCmd(),
	)
	return root
}

func (c *cli) logger() zerolog.Logger {
	if !c.verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: c.errOut, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
}

func (c *cli) client() *client.Client {
	return client.NewClient(c.baseURL, c.token, c.logger())
}

func (c *cli) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
