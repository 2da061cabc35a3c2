// Package backend talks to the emotion-detection service that parses PDF
// scripts and labels each dialogue line with an emotion.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"storyteller/pkg/schema"
	"storyteller/pkg/utils"
)

const (
	uploadScriptPath   = "/upload-script"
	detectEmotionsPath = "/detect-emotions"
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s returned %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s returned %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the service at baseURL. A nil httpClient
// gets a default one without an overall timeout; callers bound requests
// through their context.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: 5 * time.Minute,
		}}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// UploadScript sends a PDF as the multipart field "file" and returns the
// dialogues the service extracted from it.
func (c *Client) UploadScript(ctx context.Context, filename string, pdf io.Reader) ([]schema.DialogueEntry, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, pdf); err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+uploadScriptPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	return c.do(req, uploadScriptPath)
}

// DetectEmotions posts the entries and returns them with emotions filled in.
// Entry ids are not sent, and every emotion goes out as null.
func (c *Client) DetectEmotions(ctx context.Context, entries []schema.DialogueEntry) ([]schema.DialogueEntry, error) {
	payload, err := json.Marshal(schema.NewAnnotationRequest(entries))
	if err != nil {
		return nil, fmt.Errorf("failed to encode entries: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+detectEmotionsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req, detectEmotionsPath)
}

func (c *Client) do(req *http.Request, endpoint string) ([]schema.DialogueEntry, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Body:       utils.LimitStr(strings.TrimSpace(string(body)), 300),
		}
	}

	entries, err := decodeDialogues(body)
	if err != nil {
		return nil, fmt.Errorf("invalid %s response: %w", endpoint, err)
	}
	return entries, nil
}

// decodeDialogues accepts either a bare array of entries or an object
// wrapping them under "dialogues".
func decodeDialogues(body []byte) ([]schema.DialogueEntry, error) {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var entries []schema.DialogueEntry
		if err := json.Unmarshal(body, &entries); err != nil {
			return nil, err
		}
		return schema.Entries(entries), nil
	}

	var wrapped schema.ExtractionResult
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, err
	}
	return schema.Entries(wrapped.Dialogues), nil
}
