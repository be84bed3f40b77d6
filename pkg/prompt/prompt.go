// Package prompt builds the system prompt handed to the clinical-note
// summarization model.
package prompt

import (
	"strings"
	"time"
)

// Input holds everything the system prompt is built from. Now is injected by
// the caller so the output is fully determined by its inputs.
type Input struct {
	TemplateHTML string
	Preferences  string
	Patient      string
	Language     string
	Now          time.Time
}

// BuildSystemPrompt assembles the system prompt for the summarization model.
// The prompt instructs the model to emit HTML only, picks the output language
// from the language tag, embeds the template body verbatim and appends the
// fallback rules and user preferences.
func BuildSystemPrompt(in Input) string {
	date := in.Now.Format("2006-01-02")
	clock := in.Now.Format("15:04")

	var b strings.Builder

	b.WriteString("You are a clinical-note generator.\n")
	b.WriteString("Output **only** HTML. Use:\n")
	b.WriteString("• <h2> for section titles\n")
	b.WriteString("• <ul> around each set of fields\n")
	b.WriteString("• <li> for each field line, filling the value after the colon\n")
	b.WriteString("Do not emit any Markdown or code fences—only HTML tags.\n\n")

	if strings.HasPrefix(in.Language, "ar") {
		b.WriteString("🔠 Generate all output in **Arabic**.\nUse Arabic medical terms and section headings.\nReturn your entire reply in Arabic.\n\n")
	} else {
		b.WriteString("🔠 Generate all output in **English**.\n\n")
	}

	b.WriteString(in.TemplateHTML)
	b.WriteString("\n\n")

	b.WriteString("Special Instructions:\n")
	b.WriteString("1. If a field isn’t mentioned in the transcript, leave its <li> blank after the colon.\n")
	b.WriteString("2. If Date/Time are missing, use " + date + " and " + clock + ".\n")
	b.WriteString("3. If Name are missing, use " + in.Patient + ".\n\n")

	b.WriteString("General Guidelines:\n")
	b.WriteString(in.Preferences)
	b.WriteString("\n\n")

	return b.String()
}
