// Package studio runs the storytelling workflow for a session: acquire a
// story, extract its dialogues and hand them off for emotion annotation.
package studio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"storyteller/pkg/schema"
	"storyteller/pkg/session"
	"storyteller/pkg/state"
	"storyteller/pkg/story"
)

var (
	ErrBusy       = errors.New("session is busy")
	ErrNoFile     = errors.New("no file provided")
	ErrTooLarge   = errors.New("file too large")
	ErrInvalidPDF = errors.New("not a readable PDF")
	// ErrUpstream wraps failures of the generative model or the backend.
	ErrUpstream = errors.New("upstream request failed")
)

type StoryGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type Backend interface {
	UploadScript(ctx context.Context, filename string, pdf io.Reader) ([]schema.DialogueEntry, error)
	DetectEmotions(ctx context.Context, entries []schema.DialogueEntry) ([]schema.DialogueEntry, error)
}

type Options struct {
	MaxUploadBytes int64
	// RequestTimeout bounds the outbound work of one action; 0 means no bound.
	RequestTimeout time.Duration
}

type Studio struct {
	store     session.Store
	extractor story.Extractor
	generator StoryGenerator
	backend   Backend
	log       *log.Logger
	opts      Options

	validatePDF func([]byte) error
}

func New(store session.Store, extractor story.Extractor, generator StoryGenerator, backend Backend, logger *log.Logger, opts Options) *Studio {
	if logger == nil {
		logger = log.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Studio{
		store:       store,
		extractor:   extractor,
		generator:   generator,
		backend:     backend,
		log:         logger,
		opts:        opts,
		validatePDF: pageCount,
	}
}

func (s *Studio) NewSession(ctx context.Context) (string, state.UIState, error) {
	id, st, err := s.store.Create(ctx)
	if err != nil {
		return "", state.UIState{}, err
	}
	s.log.Debug("session created", "session", id)
	return id, st, nil
}

func (s *Studio) Session(ctx context.Context, id string) (state.UIState, error) {
	return s.store.Get(ctx, id)
}

func (s *Studio) EndSession(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Ping reports whether the session store is reachable.
func (s *Studio) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// UploadText stores the file's contents verbatim as the story and extracts
// its dialogues. A file that cannot be read is logged and otherwise ignored.
func (s *Studio) UploadText(ctx context.Context, id, filename string, r io.Reader) (st state.UIState, err error) {
	if r == nil {
		return state.UIState{}, ErrNoFile
	}
	if st, err = s.begin(ctx, id); err != nil {
		return st, err
	}
	defer s.finish(ctx, id, &st, &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.read(r)
	if errors.Is(err, ErrTooLarge) {
		return st, err
	}
	if err != nil {
		s.log.Warn("failed to read uploaded text", "session", id, "file", filename, "error", err)
		return st, nil
	}

	text := string(data)
	if _, err := s.dispatch(ctx, id, state.StoryLoaded{Text: text, Label: filename}); err != nil {
		return st, err
	}
	return st, s.extract(ctx, id, text)
}

// UploadPDF validates the PDF and lets the backend parse it into dialogues.
// Failures surface as an alert and leave the previous story in place.
func (s *Studio) UploadPDF(ctx context.Context, id, filename string, r io.Reader) (st state.UIState, err error) {
	if r == nil {
		return state.UIState{}, ErrNoFile
	}
	if st, err = s.begin(ctx, id); err != nil {
		return st, err
	}
	defer s.finish(ctx, id, &st, &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	data, err := s.read(r)
	if err != nil {
		return st, s.fail(ctx, id, "Failed to read script", err)
	}
	if err := s.validatePDF(data); err != nil {
		return st, s.fail(ctx, id, "Invalid PDF", fmt.Errorf("%w: %w", ErrInvalidPDF, err))
	}

	entries, err := s.backend.UploadScript(ctx, filename, bytes.NewReader(data))
	if err != nil {
		return st, s.fail(ctx, id, "Script upload failed", fmt.Errorf("%w: %w", ErrUpstream, err))
	}
	s.log.Info("script parsed by backend", "session", id, "file", filename, "entries", len(entries))

	_, err = s.dispatch(ctx, id, state.ScriptUploaded{Label: filename, Dialogues: entries})
	return st, err
}

// Generate asks the model for a new story, stores it and extracts its
// dialogues. onStory, when set, sees the state right after the story is
// stored and before extraction starts.
func (s *Studio) Generate(ctx context.Context, id string, onStory func(state.UIState)) (st state.UIState, err error) {
	if st, err = s.begin(ctx, id); err != nil {
		return st, err
	}
	defer s.finish(ctx, id, &st, &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	text, err := s.generator.Generate(ctx)
	if err != nil {
		s.log.Error("story generation failed", "session", id, "error", err)
		return st, fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	loaded, err := s.dispatch(ctx, id, state.StoryLoaded{Text: text})
	if err != nil {
		return st, err
	}
	if onStory != nil {
		onStory(loaded)
	}
	return st, s.extract(ctx, id, text)
}

// Annotate sends the current dialogues to emotion detection and replaces
// them with the annotated result.
func (s *Studio) Annotate(ctx context.Context, id string) (st state.UIState, err error) {
	if st, err = s.begin(ctx, id); err != nil {
		return st, err
	}
	defer s.finish(ctx, id, &st, &err)
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	annotated, err := s.backend.DetectEmotions(ctx, st.Extraction.Dialogues)
	if err != nil {
		return st, s.fail(ctx, id, "Emotion detection failed", fmt.Errorf("%w: %w", ErrUpstream, err))
	}
	s.log.Info("dialogues annotated", "session", id, "entries", len(annotated))

	_, err = s.dispatch(ctx, id, state.Annotated{Dialogues: annotated})
	return st, err
}

// extract runs the extractor and records its result. Extraction failures
// reset the extraction and are not reported to the caller.
func (s *Studio) extract(ctx context.Context, id, text string) error {
	result, err := s.extractor.Extract(ctx, text)
	if err != nil {
		s.log.Warn("dialogue extraction failed", "session", id, "error", err)
		_, err = s.dispatch(ctx, id, state.ExtractionReset{})
		return err
	}
	_, err = s.dispatch(ctx, id, state.Extracted{Result: result})
	return err
}

// begin marks the session as loading, or fails with ErrBusy and the current
// state if another action is in flight.
func (s *Studio) begin(ctx context.Context, id string) (state.UIState, error) {
	return s.store.Update(ctx, id, func(st *state.UIState) error {
		if st.Loading {
			return ErrBusy
		}
		*st = state.Reduce(*st, state.Begin{})
		return nil
	})
}

// finish clears the loading flag and publishes the final state through st.
func (s *Studio) finish(ctx context.Context, id string, st *state.UIState, err *error) {
	final, ferr := s.dispatch(ctx, id, state.Finish{})
	if ferr != nil {
		s.log.Error("failed to clear loading flag", "session", id, "error", ferr)
		if *err == nil {
			*err = ferr
		}
		return
	}
	*st = final
}

// dispatch applies actions to the stored state. Writes are detached from
// ctx cancellation so a timed-out request still records its outcome.
func (s *Studio) dispatch(ctx context.Context, id string, actions ...state.Action) (state.UIState, error) {
	return s.store.Update(context.WithoutCancel(ctx), id, func(st *state.UIState) error {
		for _, a := range actions {
			*st = state.Reduce(*st, a)
		}
		return nil
	})
}

// fail records msg and cause as the session alert and returns cause.
func (s *Studio) fail(ctx context.Context, id, msg string, cause error) error {
	s.log.Error(msg, "session", id, "error", cause)
	if _, err := s.dispatch(ctx, id, state.Failed{Message: msg + ": " + cause.Error()}); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (s *Studio) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.RequestTimeout > 0 {
		return context.WithTimeout(ctx, s.opts.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (s *Studio) read(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.opts.MaxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.opts.MaxUploadBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func pageCount(data []byte) error {
	n, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("document has no pages")
	}
	return nil
}
