package story

import (
	"strings"
)

// GeneratePrompt asks for a short two-character script with narration.
const GeneratePrompt = "Generate a short story with 2 characters and a narrator. " +
	"The story should have clear character interactions, emotions, and narrative descriptions. " +
	"Generate this story in a play/drama-like script format where character dialogues are marked as " +
	"'Character Name: [dialogue]' and narrative descriptions are marked as 'Narrator: [description]'. " +
	"Include narrative descriptions between dialogues to set scenes and describe actions. " +
	"Ensure proper formatting with each entry on a new line."

// Substituted when the model returns no candidate text.
const (
	NoStoryGenerated  = "No story generated."
	EmptyJSONResponse = "{}"
)

const extractionIntro = `Analyze the following story and extract all dialogues and narrative descriptions in the order they appear.
Return ONLY a JSON object where each entry in "dialogues" is either a character's dialogue or a narrator's description.
Use this exact JSON format:
`

const extractionFormat = `{"dialogues": [
    {"id": 1, "name": "Speaker Name", "dialogue": "Spoken dialogue"},
    {"id": 2, "name": "Narrator", "dialogue": "Narrative description or scene setting"},
    {"id": 3, "name": "Next Speaker", "dialogue": "Next spoken dialogue"}
]}`

const extractionFormatGender = `{"dialogues": [
    {"id": 1, "name": "Speaker Name", "dialogue": "Spoken dialogue", "predicted_gender": "Male"},
    {"id": 2, "name": "Narrator", "dialogue": "Narrative description or scene setting", "predicted_gender": "Male"},
    {"id": 3, "name": "Next Speaker", "dialogue": "Next spoken dialogue", "predicted_gender": "Female"}
]}`

// ExtractionPrompt builds the dialogue extraction prompt for text. With
// gender set, the model also predicts each speaker's gender and the Narrator
// is always "Male".
func ExtractionPrompt(text string, gender bool) string {
	var b strings.Builder
	b.WriteString(extractionIntro)
	b.WriteByte('\n')
	if gender {
		b.WriteString(extractionFormatGender)
	} else {
		b.WriteString(extractionFormat)
	}
	b.WriteString("\n\nTreat narrative descriptions as dialogues with \"Narrator\" as the speaker name.\n")
	if gender {
		b.WriteString("Set \"predicted_gender\" to \"Male\" or \"Female\" for every speaker based on the story. The Narrator is always \"Male\".\n")
	} else {
		b.WriteString("Do not include gender information.\n")
	}
	b.WriteString("Do NOT return any explanations, markdown formatting, or additional text.\n\n")
	b.WriteString("Story: ")
	b.WriteString(text)
	return b.String()
}
