package quiz

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
	"github.com/studymate-dev/studymate/pkg/usecase/chat"
	"github.com/studymate-dev/studymate/pkg/utils/logging"
)

type State string

const (
	StateIdle        State = "idle"
	StateConfiguring State = "configuring"
	StateActive      State = "active"
	StateFinished    State = "finished"
	StateAborted     State = "aborted"
)

const defaultAdvanceDelay = 1500 * time.Millisecond

// Machine governs a single quiz run: configuration, serial question fetch,
// answer scoring, and termination. At most one session is active per
// machine; a new run may only be configured from Idle or a terminal state.
type Machine struct {
	mu      sync.Mutex
	backend adapter.Backend
	log     *chat.Log

	// advanceDelay is the pause between an answered question and the
	// automatic fetch of the next one. Zero disables auto-advance.
	advanceDelay time.Duration

	state      State
	session    *model.QuizSession
	generation int
	fetching   bool
	question   *model.QuizPayload
	answered   bool
}

type Option func(*Machine)

// WithAdvanceDelay overrides the auto-advance delay. A zero delay disables
// the scheduled advance entirely and the caller drives the machine manually.
func WithAdvanceDelay(d time.Duration) Option {
	return func(m *Machine) {
		m.advanceDelay = d
	}
}

// NewMachine creates a quiz machine appending its turns to the given log.
func NewMachine(backend adapter.Backend, log *chat.Log, options ...Option) *Machine {
	m := &Machine{
		backend:      backend,
		log:          log,
		advanceDelay: defaultAdvanceDelay,
		state:        StateIdle,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

// Config is the user-confirmed quiz configuration.
type Config struct {
	Total      int
	Difficulty model.Difficulty
	Topic      string
	CourseID   model.CourseID
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Session returns a copy of the current session, or nil before the first
// successful Configure.
func (m *Machine) Session() *model.QuizSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	c := *m.session
	return &c
}

// Question returns the rendered question awaiting an answer, or nil.
func (m *Machine) Question() *model.QuizPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.question == nil || m.answered {
		return nil
	}
	c := *m.question
	return &c
}

// Configure requests a session id from the backend and activates the run.
// On backend failure the machine returns to Idle so the caller can retry.
func (m *Machine) Configure(ctx context.Context, cfg Config) error {
	if cfg.Total < 0 {
		return goerr.Wrap(model.ErrState, "question count must not be negative", goerr.V("total", cfg.Total))
	}
	if err := cfg.Difficulty.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	switch m.state {
	case StateIdle, StateFinished, StateAborted:
	default:
		m.mu.Unlock()
		return goerr.Wrap(model.ErrState, "a quiz session is already in progress", goerr.V("state", m.state))
	}
	m.state = StateConfiguring
	m.generation++
	m.session = nil
	m.question = nil
	m.answered = false
	m.fetching = false
	gen := m.generation
	m.mu.Unlock()

	info, err := m.backend.StartQuizSession(ctx, cfg.CourseID, cfg.Topic)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state != StateConfiguring {
		// Aborted while the request was in flight; drop the result
		return goerr.Wrap(model.ErrState, "session aborted during configuration")
	}
	if err != nil {
		m.state = StateIdle
		return goerr.Wrap(err, "failed to start quiz session", goerr.V("course_id", cfg.CourseID))
	}

	m.session = &model.QuizSession{
		ID:         info.ID,
		CourseID:   cfg.CourseID,
		Total:      cfg.Total,
		Difficulty: cfg.Difficulty,
		Topic:      cfg.Topic,
		Active:     true,
	}
	m.state = StateActive
	return nil
}

// RequestNextQuestion fetches the next question, or finishes the run when
// all questions have been asked. It returns (nil, nil) when the session
// finished or when a late response was dropped after an abort. Exactly one
// fetch may be in flight at a time.
func (m *Machine) RequestNextQuestion(ctx context.Context) (*model.QuizPayload, error) {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return nil, goerr.Wrap(model.ErrState, "no active quiz session", goerr.V("state", m.state))
	}
	if m.fetching {
		m.mu.Unlock()
		return nil, goerr.Wrap(model.ErrAlreadyInProgress, "a question fetch is already in flight")
	}

	if m.session.Current == m.session.Total {
		m.state = StateFinished
		m.session.Active = false
		completion := fmt.Sprintf("Quiz complete! You scored %d out of %d.", m.session.Score, m.session.Total)
		m.mu.Unlock()
		m.log.Append(model.TextTurn(model.RoleBot, completion))
		return nil, nil
	}

	m.session.Current++
	m.fetching = true
	gen := m.generation
	input := &adapter.ChatInput{
		Message:    questionPrompt(m.session.Current, m.session.Total),
		CourseID:   m.session.CourseID,
		Difficulty: m.session.Difficulty,
		Topic:      m.session.Topic,
	}
	m.mu.Unlock()

	out, err := m.backend.Chat(ctx, input)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state != StateActive {
		// The session was aborted while the fetch was in flight
		return nil, nil
	}
	m.fetching = false

	if err != nil {
		// Stay Active with no question advanced so the caller can retry
		m.session.Current--
		return nil, goerr.Wrap(err, "failed to fetch question", goerr.V("index", m.session.Current+1))
	}
	if out.Quiz == nil {
		m.session.Current--
		return nil, goerr.Wrap(model.ErrParse, "backend returned no quiz payload")
	}

	m.question = out.Quiz
	m.answered = false
	m.log.Append(model.QuizTurn(out.Quiz))
	return out.Quiz, nil
}

// SubmitAnswer scores the selected option against the current question.
// Correctness is substring containment of the backend-supplied answer within
// the selected option text; an empty answer never matches any option. The
// submission record is fire-and-forget and never blocks progression. When
// auto-advance is enabled the next fetch is scheduled after the feedback
// delay unless the session is aborted first.
func (m *Machine) SubmitAnswer(ctx context.Context, selected string) (bool, error) {
	m.mu.Lock()
	if m.state != StateActive || m.question == nil || m.answered {
		m.mu.Unlock()
		return false, goerr.Wrap(model.ErrState, "no question awaiting an answer", goerr.V("state", m.state))
	}

	m.answered = true
	q := m.question
	correct := q.Answer != "" && strings.Contains(selected, q.Answer)
	if correct {
		m.session.Score++
	}
	input := &adapter.SubmitInput{
		SessionID:  m.session.ID,
		Question:   q.Question,
		Selected:   selected,
		Correct:    correct,
		Difficulty: m.session.Difficulty,
	}
	gen := m.generation
	delay := m.advanceDelay
	m.mu.Unlock()

	// Best-effort side channel; a lost record must not stall the quiz
	go func(ctx context.Context) {
		if err := m.backend.SubmitAnswer(ctx, input); err != nil {
			logging.From(ctx).Warn("failed to record quiz answer",
				"session_id", input.SessionID, "error", err)
		}
	}(context.WithoutCancel(ctx))

	if delay > 0 {
		advanceCtx := context.WithoutCancel(ctx)
		time.AfterFunc(delay, func() {
			m.mu.Lock()
			stale := m.generation != gen || m.state != StateActive
			m.mu.Unlock()
			if stale {
				return
			}
			if _, err := m.RequestNextQuestion(advanceCtx); err != nil {
				logging.From(advanceCtx).Warn("failed to advance quiz", "error", err)
			}
		})
	}

	return correct, nil
}

// Abort terminates the run from Configuring or Active. Any in-flight fetch
// result arriving afterwards is dropped, not applied.
func (m *Machine) Abort() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case StateConfiguring, StateActive:
	default:
		return goerr.Wrap(model.ErrState, "no session to abort", goerr.V("state", m.state))
	}

	m.state = StateAborted
	m.generation++
	m.fetching = false
	m.question = nil
	m.answered = false
	if m.session != nil {
		m.session.Active = false
	}
	return nil
}

func questionPrompt(current, total int) string {
	return fmt.Sprintf("Generate quiz question %d of %d.", current, total)
}
