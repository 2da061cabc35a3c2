package schema

import (
	"slices"
	"strings"
)

// Narrator is the reserved speaker name for narrative descriptions.
const Narrator = "Narrator"

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

type ExtractionResult struct {
	Dialogues []DialogueEntry `json:"dialogues" jsonschema:"required" jsonschema_description:"Dialogues and narrative descriptions in story order"`
}

type DialogueEntry struct {
	ID              *int    `json:"id,omitempty" jsonschema:"nullable" jsonschema_description:"Position of the entry, starting at 1"`
	Name            string  `json:"name" jsonschema:"required" jsonschema_description:"Speaker name, or Narrator for narrative descriptions"`
	Dialogue        string  `json:"dialogue" jsonschema:"required" jsonschema_description:"Spoken line or narrative description"`
	PredictedGender *string `json:"predicted_gender" jsonschema:"nullable" jsonschema_description:"Male or Female"`
	Emotion         *string `json:"emotion" jsonschema:"nullable" jsonschema_description:"Emotion label assigned by the detection backend"`
}

// EmptyExtraction returns a result whose dialogue list encodes as [] rather than null.
func EmptyExtraction() ExtractionResult {
	return ExtractionResult{Dialogues: []DialogueEntry{}}
}

// Entries returns d, or an empty non-nil slice when d is nil.
func Entries(d []DialogueEntry) []DialogueEntry {
	if d == nil {
		return []DialogueEntry{}
	}
	return d
}

func (e DialogueEntry) IsNarrator() bool {
	return e.Name == Narrator
}

// AnnotationRequest is the body /detect-emotions receives.
type AnnotationRequest struct {
	Dialogues []AnnotationEntry `json:"dialogues"`
}

// AnnotationEntry carries no id, and its emotion is always null.
type AnnotationEntry struct {
	Name            string  `json:"name"`
	Dialogue        string  `json:"dialogue"`
	PredictedGender *string `json:"predicted_gender"`
	Emotion         *string `json:"emotion"`
}

func NewAnnotationRequest(entries []DialogueEntry) AnnotationRequest {
	out := make([]AnnotationEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, AnnotationEntry{
			Name:            e.Name,
			Dialogue:        e.Dialogue,
			PredictedGender: e.PredictedGender,
		})
	}
	return AnnotationRequest{Dialogues: out}
}

// Render formats entries as a script, one entry per line.
// Narrator lines are bracketed and carry no name prefix.
func Render(entries []DialogueEntry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		if e.IsNarrator() {
			b.WriteString("[" + e.Dialogue + "]")
			continue
		}
		b.WriteString(e.Name + ": " + e.Dialogue)
	}
	return b.String()
}

// Speakers lists the distinct non-narrator speakers in order of first appearance.
func Speakers(entries []DialogueEntry) []string {
	var out []string
	for _, e := range entries {
		if e.IsNarrator() || slices.Contains(out, e.Name) {
			continue
		}
		out = append(out, e.Name)
	}
	return out
}
