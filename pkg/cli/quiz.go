package cli

import (
	"context"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/quiz"
)

func quizCommand() *cli.Command {
	var (
		cfg        config
		total      int64
		difficulty string
		topic      string
	)

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "questions",
			Aliases:     []string{"n"},
			Usage:       "Number of questions",
			Value:       5,
			Destination: &total,
		},
		&cli.StringFlag{
			Name:        "difficulty",
			Aliases:     []string{"d"},
			Usage:       "Question difficulty (easy, medium, hard)",
			Value:       string(model.DifficultyMedium),
			Destination: &difficulty,
		},
		&cli.StringFlag{
			Name:        "topic",
			Aliases:     []string{"t"},
			Usage:       "Optional topic to focus the quiz on",
			Destination: &topic,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "quiz",
		Usage: "Take an adaptively generated quiz",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}
			ws.sync(ctx)

			qcfg := quiz.Config{
				Total:      int(total),
				Difficulty: model.Difficulty(difficulty),
				Topic:      topic,
				CourseID:   ws.courseID,
			}
			if err := qcfg.Difficulty.Validate(); err != nil {
				return err
			}

			w := c.Root().Writer
			renderer := adapter.NewNoopRenderer()
			ws.log.OnAppend(func(turn model.Turn) {
				if turn.Role == model.RoleBot {
					printTurn(w, renderer, turn)
				}
			})

			rl, err := readline.New("answer> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			return runQuiz(ctx, w, rl, ws, qcfg)
		},
	}
}
