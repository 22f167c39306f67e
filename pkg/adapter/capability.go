package adapter

import "context"

// Capability collaborators. The session core must stay functionally correct
// with all of these replaced by the no-op implementations below.

// Renderer converts markdown text to terminal-presentable output.
type Renderer interface {
	Render(text string) string
}

// Speaker reads a bot reply out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Recognizer captures a spoken user message.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

type noopRenderer struct{}

// NewNoopRenderer returns a Renderer that passes text through unchanged.
func NewNoopRenderer() Renderer {
	return &noopRenderer{}
}

func (noopRenderer) Render(text string) string { return text }

type noopSpeaker struct{}

// NewNoopSpeaker returns a Speaker that does nothing.
func NewNoopSpeaker() Speaker {
	return &noopSpeaker{}
}

func (noopSpeaker) Speak(ctx context.Context, text string) error { return nil }

type noopRecognizer struct{}

// NewNoopRecognizer returns a Recognizer that captures nothing.
func NewNoopRecognizer() Recognizer {
	return &noopRecognizer{}
}

func (noopRecognizer) Listen(ctx context.Context) (string, error) { return "", nil }
