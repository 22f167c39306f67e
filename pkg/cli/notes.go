package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/studymate-dev/studymate/pkg/model"
)

func notesCommand() *cli.Command {
	return &cli.Command{
		Name:  "notes",
		Usage: "Manage uploaded notes",
		Commands: []*cli.Command{
			notesListCommand(),
			notesRenameCommand(),
			notesRemoveCommand(),
		},
	}
}

func notesListCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "list",
		Usage: "List notes for a course",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}
			ws.sync(ctx)

			confirmed := ws.registry.Notes()
			if len(confirmed) == 0 {
				fmt.Fprintln(c.Root().Writer, "No notes uploaded yet.")
				return nil
			}
			for _, n := range confirmed {
				fmt.Fprintf(c.Root().Writer, "%s\t%s\n", n.ID, n.Name)
			}
			return nil
		},
	}
}

func notesRenameCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a note",
		ArgsUsage: "<note-id> <new-name>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			if c.Args().Len() != 2 {
				return goerr.New("note id and new name are required")
			}

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}
			ws.sync(ctx)

			id := model.NoteID(c.Args().Get(0))
			if err := ws.registry.Rename(ctx, id, c.Args().Get(1)); err != nil {
				return goerr.Wrap(err, "rename failed")
			}
			return nil
		},
	}
}

func notesRemoveCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:      "remove",
		Usage:     "Delete a note",
		ArgsUsage: "<note-id>",
		Flags:     globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			if c.Args().Len() != 1 {
				return goerr.New("note id is required")
			}

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}
			ws.sync(ctx)

			id := model.NoteID(c.Args().Get(0))
			if err := ws.registry.Remove(ctx, id); err != nil {
				return goerr.Wrap(err, "remove failed")
			}
			return nil
		},
	}
}
