package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller/pkg/backend"
	"storyteller/pkg/config"
	"storyteller/pkg/inference"
	"storyteller/pkg/session"
	"storyteller/pkg/state"
	"storyteller/pkg/story"
	"storyteller/pkg/studio"
)

const extractionJSON = `{"dialogues":[{"id":1,"name":"Alice","dialogue":"Hi","predicted_gender":"Female"},{"id":2,"name":"Narrator","dialogue":"The room was quiet.","predicted_gender":"Male"}]}`

type testEnv struct {
	srv     *Server
	model   *inference.MockInferencer
	backend *httptest.Server
	status  int
}

func newTestEnv(t *testing.T, mode string) *testEnv {
	t.Helper()
	env := &testEnv{status: http.StatusOK}

	env.backend = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if env.status != http.StatusOK {
			http.Error(w, "backend exploded", env.status)
			return
		}
		var body struct {
			Dialogues []map[string]any `json:"dialogues"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		for _, e := range body.Dialogues {
			e["emotion"] = "neutral"
		}
		_ = json.NewEncoder(w).Encode(body.Dialogues)
	}))
	t.Cleanup(env.backend.Close)

	cfg := config.DefaultConfig()
	cfg.UploadMode = mode
	cfg.BackendURL = env.backend.URL

	logger := log.New(io.Discard)
	env.model = inference.NewMockInferencer(extractionJSON)
	st := studio.New(
		session.NewMemoryStore(time.Hour),
		story.NewLLMExtractor(env.model, logger),
		story.NewGenerator(env.model, logger),
		backend.NewClient(cfg.BackendURL, nil),
		logger,
		studio.Options{MaxUploadBytes: cfg.MaxUploadBytes},
	)
	env.srv = NewServer(context.Background(), &cfg, st, logger)
	return env
}

func (env *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	env.srv.Echo.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp sessionResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, state.StageInput, resp.State.Stage)
	return resp.ID
}

func uploadRequest(t *testing.T, id, filename, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = io.WriteString(part, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) state.UIState {
	t.Helper()
	var st state.UIState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	return st
}

func TestRoot(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestUploadTextFlow(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	id := env.createSession(t)

	text := "Alice: Hi\nNarrator: The room was quiet."
	rec := env.do(t, uploadRequest(t, id, "scene.txt", text))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	st := decodeState(t, rec)
	assert.Equal(t, text, st.RawStoryText)
	assert.Equal(t, "scene.txt", st.UploadedFileLabel)
	assert.Equal(t, state.StagePreview, st.Stage)
	assert.Len(t, st.Extraction.Dialogues, 2)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id+"/script", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice: Hi\n[The room was quiet.]", rec.Body.String())

	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/annotate", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decodeState(t, rec)
	assert.Equal(t, state.StageAnnotated, st.Stage)
	require.NotNil(t, st.Extraction.Dialogues[0].Emotion)
	assert.Equal(t, "neutral", *st.Extraction.Dialogues[0].Emotion)
}

func TestUploadInvalidExtractionStillOK(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	env.model.InferFunc = func(context.Context, *inference.Options, string) (string, error) {
		return "not json at all", nil
	}
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "scene.txt", "Alice: Hi"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"extraction":{"dialogues":[]}`)
}

func TestUploadWrongType(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "play.pdf", "%PDF-1.4"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Zero(t, env.model.Calls())
}

func TestUploadPDFModeRejectsText(t *testing.T) {
	env := newTestEnv(t, config.UploadModePDF)
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "scene.txt", "Alice: Hi"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadPDFGarbage(t *testing.T) {
	env := newTestEnv(t, config.UploadModePDF)
	id := env.createSession(t)

	rec := env.do(t, uploadRequest(t, id, "play.PDF", "not really a pdf"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid PDF")
}

func TestUploadMissingFile(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	id := env.createSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/upload", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec := env.do(t, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownSession(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/sessions/nope", nil),
		httptest.NewRequest(http.MethodGet, "/api/sessions/nope/script", nil),
		httptest.NewRequest(http.MethodDelete, "/api/sessions/nope", nil),
		httptest.NewRequest(http.MethodPost, "/api/sessions/nope/annotate", nil),
		httptest.NewRequest(http.MethodPost, "/api/sessions/nope/generate", nil),
		uploadRequest(t, "nope", "a.txt", "x"),
	} {
		rec := env.do(t, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", req.Method, req.URL.Path)
	}
}

func TestAnnotateBackendFailure(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	id := env.createSession(t)
	rec := env.do(t, uploadRequest(t, id, "scene.txt", "Alice: Hi"))
	require.Equal(t, http.StatusOK, rec.Code)
	before := decodeState(t, rec)

	env.status = http.StatusInternalServerError
	rec = env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/annotate", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body struct {
		Success bool          `json:"success"`
		Error   string        `json:"error"`
		State   state.UIState `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, before.Extraction, body.State.Extraction)
	assert.Contains(t, body.State.Alert, "Emotion detection failed")
	assert.False(t, body.State.Loading)
}

func TestGenerateJSON(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	env.model.InferFunc = func(_ context.Context, _ *inference.Options, prompt string) (string, error) {
		if prompt == story.GeneratePrompt {
			return "Alice: Hi\n***\nNarrator: The room was quiet.", nil
		}
		return extractionJSON, nil
	}
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/generate", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeState(t, rec)
	assert.Equal(t, "Alice: Hi\n\nNarrator: The room was quiet.", st.RawStoryText)
	assert.Len(t, st.Extraction.Dialogues, 2)
}

func TestGenerateStream(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	env.model.InferFunc = func(_ context.Context, _ *inference.Options, prompt string) (string, error) {
		if prompt == story.GeneratePrompt {
			return "Alice: Hi", nil
		}
		return extractionJSON, nil
	}
	id := env.createSession(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/generate", nil)
	req.Header.Set("Accept", "text/event-stream")
	rec := env.do(t, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	storyAt := strings.Index(body, "event: story\n")
	doneAt := strings.Index(body, "event: done\n")
	require.GreaterOrEqual(t, storyAt, 0, body)
	require.Greater(t, doneAt, storyAt, body)
	assert.True(t, strings.HasSuffix(body, "event: close\ndata: null\n\n"))
}

func TestGenerateFailure(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	env.model.InferFunc = func(context.Context, *inference.Options, string) (string, error) {
		return "", io.ErrUnexpectedEOF
	}
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/generate", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestBusySession(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	started := make(chan struct{})
	release := make(chan struct{})
	env.model.InferFunc = func(context.Context, *inference.Options, string) (string, error) {
		close(started)
		<-release
		return extractionJSON, nil
	}
	id := env.createSession(t)

	upload := uploadRequest(t, id, "a.txt", "Alice: Hi")
	done := make(chan int)
	go func() {
		rec := httptest.NewRecorder()
		env.srv.Echo.ServeHTTP(rec, upload)
		done <- rec.Code
	}()
	<-started

	rec := env.do(t, httptest.NewRequest(http.MethodPost, "/api/sessions/"+id+"/annotate", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	close(release)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestDeleteSession(t *testing.T) {
	env := newTestEnv(t, config.UploadModeText)
	id := env.createSession(t)

	rec := env.do(t, httptest.NewRequest(http.MethodDelete, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, httptest.NewRequest(http.MethodGet, "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
