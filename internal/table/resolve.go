// Package table reads the input spreadsheet and decides which columns hold
// subjects and which hold URLs.
package table

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Column synonyms in priority order, already normalized.
var (
	SubjectSynonyms = []string{"sujet", "subject", "thème", "theme", "topic", "thématique", "mots_clés", "mots-clés", "mots-cles", "mots_cles", "keywords", "keyword"}
	URLSynonyms     = []string{"url", "lien", "link", "urls", "liens", "links"}
)

// Roles names the original columns holding each semantic field. An empty
// name means the role is not present.
type Roles struct {
	Subject string
	URL     string
}

// Empty reports whether neither role was recognized.
func (r Roles) Empty() bool { return r.Subject == "" && r.URL == "" }

// NormalizeName folds a column header for synonym lookup.
func NormalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}

// Resolve picks the subject and URL columns. The first synonym present wins;
// among columns normalizing to the same name the first one in table order
// is used.
func Resolve(columns []string) Roles {
	byName := make(map[string]string, len(columns))
	for _, c := range columns {
		n := NormalizeName(c)
		if _, seen := byName[n]; !seen {
			byName[n] = c
		}
	}
	return Roles{
		Subject: lookup(byName, SubjectSynonyms),
		URL:     lookup(byName, URLSynonyms),
	}
}

func lookup(byName map[string]string, synonyms []string) string {
	for _, s := range synonyms {
		if c, ok := byName[s]; ok {
			return c
		}
	}
	return ""
}
