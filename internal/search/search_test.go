package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

func newEntry(id, contentType string, fields map[string]map[string]string) *types.Entry {
	e := &types.Entry{Fields: types.Fields{}}
	e.Sys.ID = id
	ct := types.NewLink("ContentType", contentType)
	e.Sys.ContentType = &ct
	for field, locales := range fields {
		e.Fields[field] = map[string]json.RawMessage{}
		for locale, v := range locales {
			raw, _ := json.Marshal(v)
			e.Fields[field][locale] = raw
		}
	}
	return e
}

func TestEntries(t *testing.T) {
	entries := []*types.Entry{
		newEntry("e1", "page", map[string]map[string]string{
			"name": {"en-US": "Summer Sale"},
			"body": {"en-US": "Everything must go", "de-DE": "Alles muss raus: SALE"},
		}),
		newEntry("e2", "author", map[string]map[string]string{
			"name": {"en-US": "Jane"},
		}),
		newEntry("e3", "page", map[string]map[string]string{
			"title": {"en-US": "Wholesale prices"},
		}),
	}
	entries[2].Fields["count"] = map[string]json.RawMessage{"en-US": json.RawMessage(`5`)}

	got := Entries(entries, "sale", func(id string) string { return "https://app/" + id })

	assert.Equal(t, []Match{
		{
			EntryID:     "e1",
			URL:         "https://app/e1",
			ContentType: "page",
			Title:       "Summer Sale",
			Matches:     map[string][]string{"body": {"de-DE"}, "name": {"en-US"}},
		},
		{
			EntryID:     "e3",
			URL:         "https://app/e3",
			ContentType: "page",
			Title:       "Wholesale prices",
			Matches:     map[string][]string{"title": {"en-US"}},
		},
	}, got)
}

func TestEntriesNoMatches(t *testing.T) {
	entries := []*types.Entry{
		newEntry("e1", "page", map[string]map[string]string{"name": {"en-US": "Home"}}),
	}
	assert.Empty(t, Entries(entries, "missing", nil))
	assert.Empty(t, Entries(nil, "x", nil))
}

func TestEntriesWithoutURLBuilder(t *testing.T) {
	entries := []*types.Entry{
		newEntry("e1", "page", map[string]map[string]string{"name": {"en-US": "HOME"}}),
	}
	got := Entries(entries, "home", nil)
	if assert.Len(t, got, 1) {
		assert.Empty(t, got[0].URL)
	}
}
