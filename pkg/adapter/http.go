package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/studymate-dev/studymate/pkg/model"
)

// httpBackend implements Backend against the fixed JSON-over-HTTP contract.
// No client-side deadline is set; cancellation comes from the caller's
// context only.
type httpBackend struct {
	baseURL string
	client  *http.Client
}

// NewHTTPBackend creates a Backend talking to the service at baseURL.
func NewHTTPBackend(baseURL string) (Backend, error) {
	if baseURL == "" {
		return nil, goerr.New("base URL is required")
	}
	return &httpBackend{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  http.DefaultClient,
	}, nil
}

type chatRequest struct {
	Message     string   `json:"message"`
	CourseID    string   `json:"course_id"`
	NoteIDs     []string `json:"note_ids"`
	Difficulty  string   `json:"difficulty,omitempty"`
	CustomTopic string   `json:"custom_topic,omitempty"`
}

type chatResponse struct {
	Response json.RawMessage `json:"response"`
	IsQuiz   bool            `json:"is_quiz"`
}

func (b *httpBackend) Chat(ctx context.Context, input *ChatInput) (*ChatOutput, error) {
	noteIDs := make([]string, 0, len(input.NoteIDs))
	for _, id := range input.NoteIDs {
		noteIDs = append(noteIDs, string(id))
	}

	req := chatRequest{
		Message:     input.Message,
		CourseID:    string(input.CourseID),
		NoteIDs:     noteIDs,
		Difficulty:  string(input.Difficulty),
		CustomTopic: input.Topic,
	}

	var resp chatResponse
	if err := b.postJSON(ctx, "/chat", req, &resp); err != nil {
		return nil, err
	}

	out := &ChatOutput{IsQuiz: resp.IsQuiz}
	if resp.IsQuiz {
		var quiz model.QuizPayload
		if err := json.Unmarshal(resp.Response, &quiz); err != nil {
			return nil, goerr.Wrap(model.ErrParse, "malformed quiz payload in chat response", goerr.V("error", err))
		}
		out.Quiz = &quiz
	} else {
		var text string
		if err := json.Unmarshal(resp.Response, &text); err != nil {
			return nil, goerr.Wrap(model.ErrParse, "malformed text payload in chat response", goerr.V("error", err))
		}
		out.Text = text
	}

	return out, nil
}

type uploadResponse struct {
	Files []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
	Error string `json:"error"`
}

func (b *httpBackend) Upload(ctx context.Context, courseID model.CourseID, files []model.FileHandle) ([]*model.Note, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("course_id", string(courseID)); err != nil {
		return nil, goerr.Wrap(err, "failed to write course field")
	}

	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.Name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create form file", goerr.V("name", f.Name))
		}
		rc, err := f.Open()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to open file", goerr.V("name", f.Name))
		}
		_, err = io.Copy(part, rc)
		rc.Close()
		if err != nil {
			return nil, goerr.Wrap(err, "failed to read file", goerr.V("name", f.Name))
		}
	}

	if err := mw.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finalize multipart body")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/upload", body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build upload request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	httpResp, err := b.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "upload request failed", goerr.V("error", err))
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "failed to read upload response", goerr.V("error", err))
	}

	var resp uploadResponse
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		// The error field is optional on failure responses
		_ = json.Unmarshal(data, &resp)
		return nil, goerr.Wrap(model.ErrServer, "upload rejected",
			goerr.V("status", httpResp.StatusCode),
			goerr.V("message", resp.Error))
	}

	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, goerr.Wrap(model.ErrParse, "malformed upload response", goerr.V("error", err))
	}

	notes := make([]*model.Note, 0, len(resp.Files))
	for _, f := range resp.Files {
		notes = append(notes, &model.Note{ID: model.NoteID(f.ID), Name: f.Name})
	}
	return notes, nil
}

type historyResponse struct {
	HasHistory bool `json:"has_history"`
	Files      []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"files"`
	Chats []model.ChatRecord `json:"chats"`
}

func (b *httpBackend) History(ctx context.Context, courseID model.CourseID) (*HistoryOutput, error) {
	var resp historyResponse
	if err := b.getJSON(ctx, "/history", url.Values{"course_id": {string(courseID)}}, &resp); err != nil {
		return nil, err
	}

	out := &HistoryOutput{
		HasHistory: resp.HasHistory,
		Records:    resp.Chats,
	}
	for _, f := range resp.Files {
		out.Notes = append(out.Notes, &model.Note{ID: model.NoteID(f.ID), Name: f.Name})
	}
	return out, nil
}

func (b *httpBackend) RenameNote(ctx context.Context, id model.NoteID, newName string) error {
	req := map[string]string{"new_name": newName}
	return b.sendJSON(ctx, http.MethodPut, "/note/"+url.PathEscape(string(id)), req)
}

func (b *httpBackend) DeleteNote(ctx context.Context, id model.NoteID) error {
	return b.sendJSON(ctx, http.MethodDelete, "/note/"+url.PathEscape(string(id)), nil)
}

type startSessionRequest struct {
	CourseID    string `json:"course_id"`
	CustomTopic string `json:"custom_topic"`
}

type startSessionResponse struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

func (b *httpBackend) StartQuizSession(ctx context.Context, courseID model.CourseID, topic string) (*QuizSessionInfo, error) {
	req := startSessionRequest{CourseID: string(courseID), CustomTopic: topic}

	var resp startSessionResponse
	if err := b.postJSON(ctx, "/quiz/start_session", req, &resp); err != nil {
		return nil, err
	}
	if resp.SessionID == "" {
		return nil, goerr.Wrap(model.ErrParse, "backend returned empty session id")
	}

	return &QuizSessionInfo{ID: model.SessionID(resp.SessionID), Name: resp.Name}, nil
}

type submitRequest struct {
	SessionID  string `json:"session_id"`
	Question   string `json:"question"`
	Selected   string `json:"selected"`
	Correct    bool   `json:"correct"`
	Difficulty string `json:"difficulty"`
}

func (b *httpBackend) SubmitAnswer(ctx context.Context, input *SubmitInput) error {
	req := submitRequest{
		SessionID:  string(input.SessionID),
		Question:   input.Question,
		Selected:   input.Selected,
		Correct:    input.Correct,
		Difficulty: string(input.Difficulty),
	}
	return b.sendJSON(ctx, http.MethodPost, "/quiz/submit", req)
}

type statsResponse struct {
	HasData        bool    `json:"has_data"`
	Mastery        float64 `json:"mastery"`
	WeakArea       string  `json:"weak_area"`
	Recommendation string  `json:"recommendation"`
}

func (b *httpBackend) Stats(ctx context.Context, courseID model.CourseID) (*StatsOutput, error) {
	var resp statsResponse
	if err := b.getJSON(ctx, "/stats", url.Values{"course_id": {string(courseID)}}, &resp); err != nil {
		return nil, err
	}
	return &StatsOutput{
		HasData:        resp.HasData,
		Mastery:        resp.Mastery,
		WeakArea:       resp.WeakArea,
		Recommendation: resp.Recommendation,
	}, nil
}

// postJSON sends a JSON body and decodes a JSON response.
func (b *httpBackend) postJSON(ctx context.Context, path string, reqBody, respBody any) error {
	data, err := b.roundTrip(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		return goerr.Wrap(model.ErrParse, "malformed response body", goerr.V("path", path), goerr.V("error", err))
	}
	return nil
}

// sendJSON sends a request and checks the status only.
func (b *httpBackend) sendJSON(ctx context.Context, method, path string, reqBody any) error {
	_, err := b.roundTrip(ctx, method, path, reqBody)
	return err
}

func (b *httpBackend) getJSON(ctx context.Context, path string, query url.Values, respBody any) error {
	target := b.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}

	data, err := b.do(req, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, respBody); err != nil {
		return goerr.Wrap(model.ErrParse, "malformed response body", goerr.V("path", path), goerr.V("error", err))
	}
	return nil
}

func (b *httpBackend) roundTrip(ctx context.Context, method, path string, reqBody any) ([]byte, error) {
	var body io.Reader
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal request body", goerr.V("path", path))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("path", path))
	}
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return b.do(req, path)
}

func (b *httpBackend) do(req *http.Request, path string) ([]byte, error) {
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "request failed", goerr.V("path", path), goerr.V("error", err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, goerr.Wrap(model.ErrNetwork, "failed to read response", goerr.V("path", path), goerr.V("error", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &apiErr)
		return nil, goerr.Wrap(model.ErrServer, "request rejected",
			goerr.V("path", path),
			goerr.V("status", resp.StatusCode),
			goerr.V("message", apiErr.Error))
	}

	return data, nil
}
