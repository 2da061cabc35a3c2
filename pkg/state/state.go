// Package state holds the per-session UI state and the reducer that moves it
// between stages. Every transition is a pure function of the previous state
// and one action.
package state

import (
	"storyteller/pkg/schema"
)

type Stage string

const (
	StageInput     Stage = "input"
	StagePreview   Stage = "preview"
	StageAnnotated Stage = "annotated"
)

type UIState struct {
	RawStoryText      string                  `json:"raw_story_text"`
	UploadedFileLabel string                  `json:"uploaded_file_label"`
	Extraction        schema.ExtractionResult `json:"extraction"`
	Loading           bool                    `json:"loading"`
	Alert             string                  `json:"alert,omitempty"`
	Stage             Stage                   `json:"stage"`
}

func New() UIState {
	return UIState{
		Extraction: schema.EmptyExtraction(),
		Stage:      StageInput,
	}
}

type Action interface {
	action()
}

// Begin marks a request as in flight and clears any previous alert.
type Begin struct{}

// Finish clears the loading flag whether or not the request succeeded.
type Finish struct{}

// StoryLoaded records text that was uploaded or generated.
type StoryLoaded struct {
	Text  string
	Label string
}

type Extracted struct {
	Result schema.ExtractionResult
}

// ExtractionReset replaces the extraction with an empty one after a parse failure.
type ExtractionReset struct{}

// ScriptUploaded records dialogues returned by the backend for an uploaded PDF.
type ScriptUploaded struct {
	Label     string
	Dialogues []schema.DialogueEntry
}

type Annotated struct {
	Dialogues []schema.DialogueEntry
}

// Failed surfaces a user-visible alert and leaves everything else untouched.
type Failed struct {
	Message string
}

func (Begin) action()           {}
func (Finish) action()          {}
func (StoryLoaded) action()     {}
func (Extracted) action()       {}
func (ExtractionReset) action() {}
func (ScriptUploaded) action()  {}
func (Annotated) action()       {}
func (Failed) action()          {}

func Reduce(s UIState, a Action) UIState {
	switch a := a.(type) {
	case Begin:
		s.Loading = true
		s.Alert = ""
	case Finish:
		s.Loading = false
	case StoryLoaded:
		s.RawStoryText = a.Text
		s.UploadedFileLabel = a.Label
	case Extracted:
		s.Extraction = schema.ExtractionResult{Dialogues: schema.Entries(a.Result.Dialogues)}
		s.Stage = stageFor(s.Extraction.Dialogues)
	case ExtractionReset:
		s.Extraction = schema.EmptyExtraction()
		s.Stage = StageInput
	case ScriptUploaded:
		s.RawStoryText = ""
		s.UploadedFileLabel = a.Label
		s.Extraction = schema.ExtractionResult{Dialogues: schema.Entries(a.Dialogues)}
		s.Stage = stageFor(s.Extraction.Dialogues)
	case Annotated:
		s.Extraction = schema.ExtractionResult{Dialogues: schema.Entries(a.Dialogues)}
		s.Stage = StageAnnotated
	case Failed:
		s.Alert = a.Message
	}
	return s
}

func stageFor(d []schema.DialogueEntry) Stage {
	if len(d) == 0 {
		return StageInput
	}
	return StagePreview
}
