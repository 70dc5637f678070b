// Package prompt holds the fixed instructions sent to every provider. Both
// modes ask for the same six-field schema so one parser serves all backends.
package prompt

import (
	"strings"
	"unicode/utf8"
)

// DefaultTextBudget caps the page text embedded in an extraction prompt.
const DefaultTextBudget = 4000

// System is the system message used in subject search mode.
const System = "You are an assistant specialised in finding calls for proposals, grants and funding opportunities. Respond with strict JSON only."

// Prompt is a system/user message pair. System may be empty.
type Prompt struct {
	System string
	User   string
}

// SubjectSearch asks for a JSON array of currently open calls about topic.
func SubjectSearch(topic, languageHint string) Prompt {
	var sb strings.Builder
	sb.WriteString("Find the currently open calls for proposals about: ")
	sb.WriteString(strings.TrimSpace(topic))
	sb.WriteString("\n\nFor each call found, extract:\n")
	sb.WriteString("1. Title of the call\n")
	sb.WriteString("2. Responsible organization\n")
	sb.WriteString("3. Application start date\n")
	sb.WriteString("4. Application closing date\n")
	sb.WriteString("5. URL of the call\n")
	sb.WriteString("6. Short description (2-3 lines)\n\n")
	sb.WriteString("Answer with a JSON array only:\n")
	sb.WriteString(`[
  {
    "title": "...",
    "organization": "...",
    "start_date": "DD/MM/YYYY",
    "close_date": "DD/MM/YYYY",
    "url": "...",
    "description": "..."
  }
]`)
	writeLanguage(&sb, languageHint)
	return Prompt{System: System, User: sb.String()}
}

// PageExtraction asks for a single JSON object describing the call published
// on a page. Text is cut to budget runes; budget <= 0 uses DefaultTextBudget.
// The url field is omitted because the caller fills it from the source.
func PageExtraction(text string, budget int, languageHint string) Prompt {
	var sb strings.Builder
	sb.WriteString("Analyse this web page content and extract the call for proposals it describes:\n\n")
	sb.WriteString(Truncate(text, budget))
	sb.WriteString("\n\nAnswer with a JSON object only:\n")
	sb.WriteString(`{
  "title": "...",
  "organization": "...",
  "start_date": "DD/MM/YYYY",
  "close_date": "DD/MM/YYYY",
  "description": "..."
}`)
	sb.WriteString("\n\nIf a piece of information is not available, use \"Unspecified\".")
	writeLanguage(&sb, languageHint)
	return Prompt{User: sb.String()}
}

// Truncate returns at most budget runes of s.
func Truncate(s string, budget int) string {
	if budget <= 0 {
		budget = DefaultTextBudget
	}
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	n := 0
	for i := range s {
		if n == budget {
			return s[:i]
		}
		n++
	}
	return s
}

func writeLanguage(sb *strings.Builder, lang string) {
	if strings.TrimSpace(lang) == "" {
		return
	}
	sb.WriteString("\nWrite the description in: ")
	sb.WriteString(strings.TrimSpace(lang))
}
