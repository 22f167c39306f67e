package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/studymate-dev/studymate/pkg/adapter"
)

func historyCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "history",
		Usage: "Print the persisted transcript for a course",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}

			res := ws.sync(ctx)
			if len(res.Records) == 0 {
				fmt.Fprintln(c.Root().Writer, "No history for this course yet.")
				return nil
			}

			renderer := adapter.NewNoopRenderer()
			for turn := range ws.log.Render() {
				printTurn(c.Root().Writer, renderer, turn)
			}
			return nil
		},
	}
}
