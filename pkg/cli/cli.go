package cli

import (
	"context"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	cmd := &cli.Command{
		Name:  "studymate",
		Usage: "Terminal client for the StudyMate study assistant",
		Commands: []*cli.Command{
			chatCommand(),
			uploadCommand(),
			notesCommand(),
			quizCommand(),
			statsCommand(),
			historyCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
