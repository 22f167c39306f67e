package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
)

func uploadCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload files as notes for a course",
		ArgsUsage: "<file>...",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one file is required")
			}

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}

			handles := make([]model.FileHandle, 0, len(paths))
			for _, path := range paths {
				handles = append(handles, model.NewFileHandle(path))
			}

			confirmed, err := notes.NewCoordinator(ws.backend, ws.registry).Submit(ctx, ws.courseID, handles)
			if err != nil {
				return goerr.Wrap(err, "upload failed")
			}

			for _, n := range confirmed {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", n.ID, n.Name)
			}
			return nil
		},
	}
}
