// Package search finds entries whose string fields contain a piece of text.
package search

import (
	"strings"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

// TitleLocale is the locale used for match titles.
const TitleLocale = "en-US"

// Match is an entry with at least one matching field.
type Match struct {
	EntryID     string              `json:"entryId"`
	URL         string              `json:"url,omitempty"`
	ContentType string              `json:"contentType"`
	Title       string              `json:"title,omitempty"`
	Matches     map[string][]string `json:"matches"` // field -> locales
}

// Entries returns the entries having a string field value that contains
// query, ignoring case. webURL, if non-nil, builds the link shown for an
// entry id. Matches keep the order of entries.
func Entries(entries []*types.Entry, query string, webURL func(id string) string) []Match {
	needle := strings.ToLower(query)
	var results []Match

	for _, entry := range entries {
		matches := make(map[string][]string)
		for _, fv := range entry.StringValues() {
			if strings.Contains(strings.ToLower(fv.Value), needle) {
				matches[fv.Field] = append(matches[fv.Field], fv.Locale)
			}
		}
		if len(matches) == 0 {
			continue
		}

		m := Match{
			EntryID:     entry.Sys.ID,
			ContentType: entry.ContentTypeID(),
			Title:       entry.Title(TitleLocale),
			Matches:     matches,
		}
		if webURL != nil {
			m.URL = webURL(entry.Sys.ID)
		}
		results = append(results, m)
	}
	return results
}
