package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func statsCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "stats",
		Usage: "Show the mastery dashboard for a course",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}
			return printStats(ctx, c.Root().Writer, ws)
		},
	}
}

func printStats(ctx context.Context, w io.Writer, ws *workspace) error {
	stats, err := ws.backend.Stats(ctx, ws.courseID)
	if err != nil {
		return goerr.Wrap(err, "failed to fetch stats")
	}

	if !stats.HasData {
		fmt.Fprintln(w, "No quiz data yet. Take a quiz to build your mastery profile.")
		return nil
	}

	fmt.Fprintf(w, "Mastery:        %.0f%%\n", stats.Mastery)
	fmt.Fprintf(w, "Weak area:      %s\n", stats.WeakArea)
	fmt.Fprintf(w, "Recommendation: %s\n", stats.Recommendation)
	return nil
}
