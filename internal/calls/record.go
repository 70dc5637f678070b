package calls

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Sentinels used instead of absent values so report consumers never need to
// branch on missing fields.
const (
	Untitled    = "Untitled"
	Unspecified = "Unspecified"
)

// Record is one call for proposals as extracted by a provider or by the
// heuristic extractor. Dates are kept as free-form text.
type Record struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	StartDate    string `json:"start_date"`
	CloseDate    string `json:"close_date"`
	URL          string `json:"url"`
	Description  string `json:"description"`
}

// Normalize fills empty fields with their sentinel values and trims
// surrounding whitespace.
func (r Record) Normalize() Record {
	r.Title = orDefault(r.Title, Untitled)
	r.Organization = orDefault(r.Organization, Unspecified)
	r.StartDate = orDefault(r.StartDate, Unspecified)
	r.CloseDate = orDefault(r.CloseDate, Unspecified)
	r.URL = strings.TrimSpace(r.URL)
	r.Description = strings.TrimSpace(r.Description)
	return r
}

// HasCloseDate reports whether the close date carries a real value rather
// than the sentinel. Renderers emphasise such dates.
func (r Record) HasCloseDate() bool {
	v := strings.TrimSpace(r.CloseDate)
	return v != "" && !IsUnspecified(v)
}

// IsUnspecified matches the sentinel as well as the "not specified" wording a
// model may echo back from the prompt.
func IsUnspecified(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unspecified", "not specified", "n/a", "non spécifié", "non spécifiée", "non specifie", "non specifiee":
		return true
	}
	return false
}

func orDefault(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// fieldAliases maps each record field to the keys accepted in model output,
// in lookup order. The French keys match what older prompts asked for.
var fieldAliases = []struct {
	keys []string
	set  func(*Record, string)
}{
	{[]string{"title", "titre", "name"}, func(r *Record, v string) { r.Title = v }},
	{[]string{"organization", "organisation", "organizer", "funder"}, func(r *Record, v string) { r.Organization = v }},
	{[]string{"start_date", "date_debut", "date_début", "opening_date"}, func(r *Record, v string) { r.StartDate = v }},
	{[]string{"close_date", "date_cloture", "date_clôture", "deadline", "closing_date"}, func(r *Record, v string) { r.CloseDate = v }},
	{[]string{"url", "lien", "link"}, func(r *Record, v string) { r.URL = v }},
	{[]string{"description", "summary", "resume", "résumé"}, func(r *Record, v string) { r.Description = v }},
}

// FromObject maps a decoded JSON object onto a Record. Keys are matched
// case-insensitively; non-string scalars are stringified and nested values
// are ignored. The result is normalized.
func FromObject(obj map[string]any) Record {
	lower := make(map[string]any, len(obj))
	for k, v := range obj {
		lower[strings.ToLower(strings.TrimSpace(k))] = v
	}
	var r Record
	for _, f := range fieldAliases {
		for _, k := range f.keys {
			v, ok := lower[k]
			if !ok {
				continue
			}
			if s := scalarString(v); s != "" {
				f.set(&r, s)
				break
			}
		}
	}
	return r.Normalize()
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
