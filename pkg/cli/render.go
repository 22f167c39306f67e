package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/notes"
)

func printTurn(w io.Writer, renderer adapter.Renderer, turn model.Turn) {
	switch {
	case turn.IsQuiz():
		fmt.Fprintf(w, "bot> %s\n", turn.Quiz.Question)
		for i, opt := range turn.Quiz.Options {
			fmt.Fprintf(w, "  %d) %s\n", i+1, opt)
		}
	case turn.Role == model.RoleUser:
		fmt.Fprintf(w, "you> %s\n", turn.Text)
	default:
		fmt.Fprintf(w, "bot> %s\n", renderer.Render(turn.Text))
	}
}

func printNotes(w io.Writer, registry *notes.Registry) {
	confirmed := registry.Notes()
	pending := registry.Pending()
	if len(confirmed) == 0 && len(pending) == 0 {
		fmt.Fprintln(w, "No notes uploaded yet.")
		return
	}

	for i, n := range confirmed {
		mark := " "
		if n.Selected {
			mark = "x"
		}
		fmt.Fprintf(w, "  [%s] %d. %s\n", mark, i+1, n.Name)
	}
	for _, p := range pending {
		fmt.Fprintf(w, "  [ ] -. %s (uploading)\n", p.File.Name)
	}
}

func newSpinner(msg string) *spinner.Spinner {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = os.Stderr
	s.Suffix = " " + msg
	return s
}
