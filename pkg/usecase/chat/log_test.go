package chat_test

import (
	"fmt"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/chat"
)

func collect(log *chat.Log) []model.Turn {
	var turns []model.Turn
	for turn := range log.Render() {
		turns = append(turns, turn)
	}
	return turns
}

func TestAppendOrder(t *testing.T) {
	log := chat.NewLog()
	for i := 0; i < 5; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleBot
		}
		log.Append(model.TextTurn(role, fmt.Sprintf("turn %d", i)))
	}

	turns := collect(log)
	gt.Equal(t, len(turns), 5)
	for i, turn := range turns {
		gt.Equal(t, turn.Text, fmt.Sprintf("turn %d", i))
	}
}

func TestAppendNotifies(t *testing.T) {
	log := chat.NewLog()

	var notified []model.Turn
	log.OnAppend(func(turn model.Turn) {
		notified = append(notified, turn)
	})

	log.Append(model.TextTurn(model.RoleUser, "hello"))
	log.Append(model.TextTurn(model.RoleBot, "hi there"))

	gt.Equal(t, len(notified), 2)
	gt.Equal(t, notified[0].Text, "hello")
	gt.Equal(t, notified[1].Text, "hi there")
}

func TestLoadFromIdempotent(t *testing.T) {
	records := []model.ChatRecord{
		{Text: "what is ATP?", IsUser: true},
		{Text: "ATP is the energy currency of the cell.", IsUser: false},
	}

	log := chat.NewLog()
	log.LoadFrom(records)
	first := collect(log)

	log.LoadFrom(records)
	second := collect(log)

	gt.Equal(t, len(second), len(first))
	gt.Equal(t, second, first)
}

func TestLoadFromReplacesExisting(t *testing.T) {
	log := chat.NewLog()
	log.Append(model.TextTurn(model.RoleUser, "stale"))

	log.LoadFrom([]model.ChatRecord{{Text: "fresh", IsUser: false}})

	turns := collect(log)
	gt.Equal(t, len(turns), 1)
	gt.Equal(t, turns[0].Text, "fresh")
	gt.Equal(t, turns[0].Role, model.RoleBot)
}

func TestLoadFromQuizMarker(t *testing.T) {
	payload := chat.QuizMarker + ` {"question":"What powers the cell?","options":["Ribosome","Mitochondria"],"answer":"Mitochondria"}`

	log := chat.NewLog()
	log.LoadFrom([]model.ChatRecord{{Text: payload, IsUser: false}})

	turns := collect(log)
	gt.Equal(t, len(turns), 1)
	gt.True(t, turns[0].IsQuiz())
	gt.Equal(t, turns[0].Quiz.Question, "What powers the cell?")
	gt.Equal(t, len(turns[0].Quiz.Options), 2)
	gt.Equal(t, turns[0].Quiz.Answer, "Mitochondria")
}

func TestLoadFromMalformedQuizDegrades(t *testing.T) {
	log := chat.NewLog()
	log.LoadFrom([]model.ChatRecord{
		{Text: chat.QuizMarker + ` {"question": truncated`, IsUser: false},
		{Text: "a normal message", IsUser: true},
	})

	turns := collect(log)
	gt.Equal(t, len(turns), 2)

	// The broken record degrades to annotated text instead of failing
	// the whole rehydration
	gt.True(t, !turns[0].IsQuiz())
	gt.S(t, turns[0].Text).Contains(`{"question": truncated`)
	gt.S(t, turns[0].Text).Contains("quiz could not be restored")

	gt.Equal(t, turns[1].Text, "a normal message")
}

func TestLoadFromSchemaRejectedQuizDegrades(t *testing.T) {
	// Valid JSON, but options is missing
	payload := chat.QuizMarker + ` {"question":"Q?","answer":"A"}`

	log := chat.NewLog()
	log.LoadFrom([]model.ChatRecord{{Text: payload, IsUser: false}})

	turns := collect(log)
	gt.Equal(t, len(turns), 1)
	gt.True(t, !turns[0].IsQuiz())
	gt.S(t, turns[0].Text).Contains("quiz could not be restored")
}

func TestRenderIsSnapshot(t *testing.T) {
	log := chat.NewLog()
	log.Append(model.TextTurn(model.RoleUser, "one"))

	seq := log.Render()
	log.Append(model.TextTurn(model.RoleBot, "two"))

	count := 0
	for range seq {
		count++
	}
	gt.Equal(t, count, 1)
	gt.Equal(t, log.Len(), 2)
}
