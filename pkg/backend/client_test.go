package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyteller/pkg/schema"
)

func ptr[T any](v T) *T { return &v }

func TestUploadScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/upload-script", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "play.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 fake", string(content))

		_, _ = io.WriteString(w, `[
			{"name":"Narrator","dialogue":"Dusk.","predicted_gender":"Male"},
			{"name":"Anna","dialogue":"Hello?","predicted_gender":"Female"}
		]`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", nil)
	entries, err := c.UploadScript(context.Background(), "play.pdf", strings.NewReader("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, schema.Narrator, entries[0].Name)
	assert.Equal(t, schema.GenderFemale, *entries[1].PredictedGender)
}

func TestUploadScriptRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"detail":"Model not loaded"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).UploadScript(context.Background(), "play.pdf", strings.NewReader("x"))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "/upload-script", statusErr.Endpoint)
	assert.Contains(t, statusErr.Error(), "Model not loaded")
}

func TestDetectEmotionsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/detect-emotions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `[{"name":"Anna","dialogue":"Hi","predicted_gender":"Female","emotion":"joy"}]`)
	}))
	defer srv.Close()

	in := []schema.DialogueEntry{{ID: ptr(1), Name: "Anna", Dialogue: "Hi", PredictedGender: ptr(schema.GenderFemale)}}
	out, err := NewClient(srv.URL, nil).DetectEmotions(context.Background(), in)
	require.NoError(t, err)

	require.Contains(t, got, "dialogues")
	dialogues, ok := got["dialogues"].([]any)
	require.True(t, ok, "dialogues is %T", got["dialogues"])
	require.Len(t, dialogues, 1)
	entry, ok := dialogues[0].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, entry, "id")
	assert.Contains(t, entry, "emotion")
	assert.Nil(t, entry["emotion"])
	assert.Equal(t, "Anna", entry["name"])
	assert.Equal(t, "Female", entry["predicted_gender"])

	require.Len(t, out, 1)
	assert.Equal(t, "joy", *out[0].Emotion)
}

func TestDetectEmotionsWrappedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"dialogues":[{"name":"Ben","dialogue":"No.","emotion":"anger"}]}`)
	}))
	defer srv.Close()

	out, err := NewClient(srv.URL, nil).DetectEmotions(context.Background(), []schema.DialogueEntry{{Name: "Ben", Dialogue: "No."}})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "anger", *out[0].Emotion)
}

func TestDetectEmotionsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).DetectEmotions(context.Background(), nil)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestDetectEmotionsGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, nil).DetectEmotions(context.Background(), nil)
	assert.ErrorContains(t, err, "invalid /detect-emotions response")
}

func TestDetectEmotionsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewClient("http://127.0.0.1:1", nil).DetectEmotions(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
