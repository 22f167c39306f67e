package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/chat"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
	"github.com/studymate-dev/studymate/pkg/usecase/quiz"
)

func chatCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive tutoring session",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = cfg.setup(ctx)

			ws, err := cfg.newWorkspace(ctx)
			if err != nil {
				return err
			}

			w := c.Root().Writer
			renderer := adapter.NewNoopRenderer()

			res := ws.sync(ctx)
			if len(res.Records) > 0 || len(res.Notes) > 0 {
				fmt.Fprintf(w, "Welcome back! Restored %d notes and %d messages.\n",
					len(res.Notes), len(res.Records))
				for turn := range ws.log.Render() {
					printTurn(w, renderer, turn)
				}
			}

			// Bot turns are rendered as they arrive; the user already sees
			// their own line in the prompt
			ws.log.OnAppend(func(turn model.Turn) {
				if turn.Role == model.RoleBot {
					printTurn(w, renderer, turn)
				}
			})

			session := chat.New(chat.NewInput{
				Backend:  ws.backend,
				Log:      ws.log,
				Registry: ws.registry,
				CourseID: ws.courseID,
			})

			rl, err := readline.New("you> ")
			if err != nil {
				return goerr.Wrap(err, "failed to open terminal")
			}
			defer rl.Close()

			fmt.Fprintln(w, `Chat session started. Type "/help" for commands, "exit" to quit.`)

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err != nil {
					break
				}

				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}
				if message == "exit" {
					break
				}

				if strings.HasPrefix(message, "/") {
					if err := runSlashCommand(ctx, w, rl, ws, message); err != nil {
						fmt.Fprintf(w, "error: %v\n", err)
					}
					continue
				}

				sp := newSpinner("thinking...")
				sp.Start()
				_, err = session.Send(ctx, message)
				sp.Stop()
				if err != nil {
					fmt.Fprintf(w, "Message failed, try again: %v\n", err)
				}
			}

			fmt.Fprintln(w, "\nChat session completed")
			return nil
		},
	}
}

func runSlashCommand(ctx context.Context, w io.Writer, rl *readline.Instance, ws *workspace, line string) error {
	fields := strings.Fields(line)

	switch fields[0] {
	case "/help":
		fmt.Fprint(w, `Commands:
  /notes                      list notes and selection state
  /select N, /unselect N      toggle note N for chat context
  /upload PATH...             upload files as notes
  /rename N NAME              rename note N
  /remove N                   delete note N
  /quiz [COUNT [DIFFICULTY [TOPIC]]]
                              take a quiz (difficulty: easy|medium|hard)
  /stats                      show mastery dashboard
  exit                        leave the session
`)
		return nil

	case "/notes":
		printNotes(w, ws.registry)
		return nil

	case "/select", "/unselect":
		note, err := noteAt(ws.registry, fields[1:])
		if err != nil {
			return err
		}
		return ws.registry.Toggle(note.ID, fields[0] == "/select")

	case "/upload":
		if len(fields) < 2 {
			return goerr.New("usage: /upload PATH...")
		}
		handles := make([]model.FileHandle, 0, len(fields)-1)
		for _, path := range fields[1:] {
			handles = append(handles, model.NewFileHandle(path))
		}

		sp := newSpinner("uploading...")
		sp.Start()
		confirmed, err := notes.NewCoordinator(ws.backend, ws.registry).Submit(ctx, ws.courseID, handles)
		sp.Stop()
		if err != nil {
			return err
		}
		for _, n := range confirmed {
			fmt.Fprintf(w, "✓ %s\n", n.Name)
		}
		return nil

	case "/rename":
		if len(fields) < 3 {
			return goerr.New("usage: /rename N NAME")
		}
		note, err := noteAt(ws.registry, fields[1:2])
		if err != nil {
			return err
		}
		return ws.registry.Rename(ctx, note.ID, strings.Join(fields[2:], " "))

	case "/remove":
		note, err := noteAt(ws.registry, fields[1:])
		if err != nil {
			return err
		}
		return ws.registry.Remove(ctx, note.ID)

	case "/quiz":
		qcfg, err := quizConfigFromArgs(ws, fields[1:])
		if err != nil {
			return err
		}
		return runQuiz(ctx, w, rl, ws, qcfg)

	case "/stats":
		return printStats(ctx, w, ws)

	default:
		return goerr.New("unknown command, try /help", goerr.V("command", fields[0]))
	}
}

// noteAt resolves a 1-based note index typed by the user.
func noteAt(registry *notes.Registry, args []string) (*model.Note, error) {
	if len(args) < 1 {
		return nil, goerr.New("note number is required")
	}
	idx, err := strconv.Atoi(args[0])
	confirmed := registry.Notes()
	if err != nil || idx < 1 || idx > len(confirmed) {
		return nil, goerr.Wrap(model.ErrNotFound, "no such note", goerr.V("arg", args[0]))
	}
	return confirmed[idx-1], nil
}

func quizConfigFromArgs(ws *workspace, args []string) (quiz.Config, error) {
	cfg := quiz.Config{
		Total:      5,
		Difficulty: model.DifficultyMedium,
		CourseID:   ws.courseID,
	}
	if ws.file.Quiz.Questions > 0 {
		cfg.Total = ws.file.Quiz.Questions
	}
	if ws.file.Quiz.Difficulty != "" {
		cfg.Difficulty = model.Difficulty(ws.file.Quiz.Difficulty)
	}

	if len(args) > 0 {
		total, err := strconv.Atoi(args[0])
		if err != nil || total < 1 {
			return cfg, goerr.New("question count must be a positive number", goerr.V("arg", args[0]))
		}
		cfg.Total = total
	}
	if len(args) > 1 {
		cfg.Difficulty = model.Difficulty(strings.ToLower(args[1]))
	}
	if len(args) > 2 {
		cfg.Topic = strings.Join(args[2:], " ")
	}

	return cfg, cfg.Difficulty.Validate()
}

// runQuiz drives a full quiz run at the terminal. The machine is driven
// manually: the terminal prompt replaces the browser's timed auto-advance.
func runQuiz(ctx context.Context, w io.Writer, rl *readline.Instance, ws *workspace, cfg quiz.Config) error {
	machine := quiz.NewMachine(ws.backend, ws.log, quiz.WithAdvanceDelay(0))

	sp := newSpinner("starting quiz...")
	sp.Start()
	err := machine.Configure(ctx, cfg)
	sp.Stop()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Quiz started: %d questions, %s difficulty. Answer with a number, or q to quit.\n",
		cfg.Total, cfg.Difficulty)

	rl.SetPrompt("answer> ")
	defer rl.SetPrompt("you> ")

	for {
		sp := newSpinner("generating question...")
		sp.Start()
		q, err := machine.RequestNextQuestion(ctx)
		sp.Stop()
		if err != nil {
			return err
		}
		if q == nil {
			// Finished; the completion turn has already been rendered
			return nil
		}

		for {
			line, err := rl.Readline()
			if err != nil {
				_ = machine.Abort()
				fmt.Fprintln(w, "Quiz aborted.")
				return nil
			}

			answer := strings.TrimSpace(line)
			if answer == "q" || answer == "quit" {
				_ = machine.Abort()
				fmt.Fprintln(w, "Quiz aborted.")
				return nil
			}

			idx, convErr := strconv.Atoi(answer)
			if convErr != nil || idx < 1 || idx > len(q.Options) {
				fmt.Fprintf(w, "Pick a number between 1 and %d, or q to quit.\n", len(q.Options))
				continue
			}

			correct, err := machine.SubmitAnswer(ctx, q.Options[idx-1])
			if err != nil {
				return err
			}
			if correct {
				fmt.Fprintln(w, "✓ Correct!")
			} else {
				fmt.Fprintf(w, "✗ Not quite. The answer was: %s\n", q.Answer)
			}
			break
		}
	}
}
