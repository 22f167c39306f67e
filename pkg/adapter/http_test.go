package adapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/studymate-dev/studymate/pkg/adapter"
	"github.com/studymate-dev/studymate/pkg/model"
)

func newBackend(t *testing.T, handler http.Handler) (adapter.Backend, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend, err := adapter.NewHTTPBackend(srv.URL)
	gt.NoError(t, err)
	return backend, srv
}

func memFile(name, content string) model.FileHandle {
	return model.FileHandle{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader([]byte(content))), nil
		},
	}
}

func TestChatText(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodPost)
		gt.Equal(t, r.URL.Path, "/chat")

		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req["message"], "explain ATP")
		gt.Equal(t, req["course_id"], "course-1")
		gt.Equal[any](t, req["note_ids"], []any{"n1", "n2"})

		json.NewEncoder(w).Encode(map[string]any{
			"response": "ATP is the energy currency.",
			"is_quiz":  false,
		})
	}))

	out, err := backend.Chat(context.Background(), &adapter.ChatInput{
		Message:  "explain ATP",
		CourseID: "course-1",
		NoteIDs:  []model.NoteID{"n1", "n2"},
	})
	gt.NoError(t, err)
	gt.True(t, !out.IsQuiz)
	gt.Equal(t, out.Text, "ATP is the energy currency.")
}

func TestChatQuiz(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req["difficulty"], "hard")
		gt.Equal(t, req["custom_topic"], "photosynthesis")

		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"question": "What absorbs light?",
				"options":  []string{"Chlorophyll", "Cellulose"},
				"answer":   "Chlorophyll",
			},
			"is_quiz": true,
		})
	}))

	out, err := backend.Chat(context.Background(), &adapter.ChatInput{
		Message:    "next question",
		CourseID:   "course-1",
		Difficulty: model.DifficultyHard,
		Topic:      "photosynthesis",
	})
	gt.NoError(t, err)
	gt.True(t, out.IsQuiz)
	gt.Equal(t, out.Quiz.Question, "What absorbs light?")
	gt.Equal(t, out.Quiz.Answer, "Chlorophyll")
}

func TestUploadMultipartBatch(t *testing.T) {
	requests := 0
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		gt.Equal(t, r.Method, http.MethodPost)
		gt.Equal(t, r.URL.Path, "/upload")

		gt.NoError(t, r.ParseMultipartForm(1 << 20))
		gt.Equal(t, r.FormValue("course_id"), "course-1")

		files := r.MultipartForm.File["file"]
		gt.Equal(t, len(files), 2)
		gt.Equal(t, files[0].Filename, "a.pdf")
		gt.Equal(t, files[1].Filename, "b.pdf")

		f, err := files[0].Open()
		gt.NoError(t, err)
		defer f.Close()
		data, err := io.ReadAll(f)
		gt.NoError(t, err)
		gt.Equal(t, string(data), "content-a")

		json.NewEncoder(w).Encode(map[string]any{
			"files": []map[string]string{
				{"id": "n1", "name": "a.pdf"},
				{"id": "n2", "name": "b.pdf"},
			},
		})
	}))

	notes, err := backend.Upload(context.Background(), "course-1", []model.FileHandle{
		memFile("a.pdf", "content-a"),
		memFile("b.pdf", "content-b"),
	})
	gt.NoError(t, err)

	// The whole batch goes out as a single request, confirmed in order
	gt.Equal(t, requests, 1)
	gt.Equal(t, len(notes), 2)
	gt.Equal(t, notes[0].ID, model.NoteID("n1"))
	gt.Equal(t, notes[1].Name, "b.pdf")
}

func TestUploadServerError(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "file too large"})
	}))

	_, err := backend.Upload(context.Background(), "course-1", []model.FileHandle{
		memFile("a.pdf", "x"),
	})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrServer))
}

func TestHistory(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodGet)
		gt.Equal(t, r.URL.Path, "/history")
		gt.Equal(t, r.URL.Query().Get("course_id"), "course-1")

		json.NewEncoder(w).Encode(map[string]any{
			"has_history": true,
			"files": []map[string]string{
				{"id": "n1", "name": "bio.pdf"},
			},
			"chats": []map[string]any{
				{"text": "hello", "is_user": true},
				{"text": "hi!", "is_user": false},
			},
		})
	}))

	out, err := backend.History(context.Background(), "course-1")
	gt.NoError(t, err)
	gt.True(t, out.HasHistory)
	gt.Equal(t, len(out.Notes), 1)
	gt.Equal(t, out.Notes[0].ID, model.NoteID("n1"))
	gt.Equal(t, len(out.Records), 2)
	gt.True(t, out.Records[0].IsUser)
}

func TestRenameNote(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodPut)
		gt.Equal(t, r.URL.Path, "/note/n1")

		var req map[string]string
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req["new_name"], "renamed.pdf")
		w.WriteHeader(http.StatusOK)
	}))

	gt.NoError(t, backend.RenameNote(context.Background(), "n1", "renamed.pdf"))
}

func TestDeleteNote(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.Method, http.MethodDelete)
		gt.Equal(t, r.URL.Path, "/note/n1")
		w.WriteHeader(http.StatusNoContent)
	}))

	gt.NoError(t, backend.DeleteNote(context.Background(), "n1"))
}

func TestDeleteNoteNotFound(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := backend.DeleteNote(context.Background(), "missing")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrServer))
}

func TestStartQuizSession(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/quiz/start_session")

		var req map[string]string
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req["course_id"], "course-1")
		gt.Equal(t, req["custom_topic"], "genetics")

		json.NewEncoder(w).Encode(map[string]string{
			"session_id": "session-9",
			"name":       "Genetics Review",
		})
	}))

	info, err := backend.StartQuizSession(context.Background(), "course-1", "genetics")
	gt.NoError(t, err)
	gt.Equal(t, info.ID, model.SessionID("session-9"))
	gt.Equal(t, info.Name, "Genetics Review")
}

func TestStartQuizSessionEmptyID(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"name": "nameless"})
	}))

	_, err := backend.StartQuizSession(context.Background(), "course-1", "")
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrParse))
}

func TestSubmitAnswer(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/quiz/submit")

		var req map[string]any
		gt.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gt.Equal(t, req["session_id"], "session-1")
		gt.Equal(t, req["selected"], "Mitochondria")
		gt.Equal(t, req["correct"], true)
		gt.Equal(t, req["difficulty"], "medium")
		w.WriteHeader(http.StatusOK)
	}))

	gt.NoError(t, backend.SubmitAnswer(context.Background(), &adapter.SubmitInput{
		SessionID:  "session-1",
		Question:   "Which organelle produces ATP?",
		Selected:   "Mitochondria",
		Correct:    true,
		Difficulty: model.DifficultyMedium,
	}))
}

func TestStats(t *testing.T) {
	backend, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gt.Equal(t, r.URL.Path, "/stats")
		gt.Equal(t, r.URL.Query().Get("course_id"), "course-1")

		json.NewEncoder(w).Encode(map[string]any{
			"has_data":       true,
			"mastery":        72.5,
			"weak_area":      "cell respiration",
			"recommendation": "review chapter 4",
		})
	}))

	out, err := backend.Stats(context.Background(), "course-1")
	gt.NoError(t, err)
	gt.True(t, out.HasData)
	gt.Equal(t, out.Mastery, 72.5)
	gt.Equal(t, out.WeakArea, "cell respiration")
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	backend, err := adapter.NewHTTPBackend(url)
	gt.NoError(t, err)

	_, err = backend.Chat(context.Background(), &adapter.ChatInput{
		Message:  "anyone there?",
		CourseID: "course-1",
	})
	gt.Error(t, err).Required()
	gt.True(t, errors.Is(err, model.ErrNetwork))
}
