// Package types defines the content records exchanged with the Contentful
// Management API: entries, assets and the links between them.
package types

import (
	"encoding/json"
	"sort"
	"time"
)

// LinkType discriminates the target of a Link.
type LinkType string

const (
	LinkTypeEntry LinkType = "Entry"
	LinkTypeAsset LinkType = "Asset"
)

// IsValid reports whether t names a link target the closure resolver follows.
func (t LinkType) IsValid() bool {
	return t == LinkTypeEntry || t == LinkTypeAsset
}

// Link is a typed reference from one content record to another.
type Link struct {
	Sys LinkSys `json:"sys"`
}

// LinkSys is the sys block of a Link.
type LinkSys struct {
	Type     string   `json:"type"`
	LinkType LinkType `json:"linkType"`
	ID       string   `json:"id"`
}

// NewLink returns a well-formed link to id.
func NewLink(linkType LinkType, id string) Link {
	return Link{Sys: LinkSys{Type: "Link", LinkType: linkType, ID: id}}
}

// Sys holds the system metadata shared by entries and assets.
type Sys struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Version          int        `json:"version,omitempty"`
	PublishedVersion int        `json:"publishedVersion,omitempty"`
	CreatedAt        *time.Time `json:"createdAt,omitempty"`
	UpdatedAt        *time.Time `json:"updatedAt,omitempty"`
	ContentType      *Link      `json:"contentType,omitempty"`
	Space            *Link      `json:"space,omitempty"`
	Environment      *Link      `json:"environment,omitempty"`
}

// Fields maps field name to locale to raw field value. Values stay raw until
// a caller asks for links or strings, since a field may hold a scalar, a
// single link or a sequence.
type Fields map[string]map[string]json.RawMessage

// Entry is a content record.
type Entry struct {
	Sys    Sys    `json:"sys"`
	Fields Fields `json:"fields"`
}

// Asset is a media record. Assets are terminal: they carry no outbound links.
type Asset struct {
	Sys    Sys    `json:"sys"`
	Fields Fields `json:"fields"`
}

// ContentTypeID returns the id of the entry's content type, or "".
func (e *Entry) ContentTypeID() string {
	if e.Sys.ContentType == nil {
		return ""
	}
	return e.Sys.ContentType.Sys.ID
}

// StringValue returns fields[field][locale] if it is a JSON string.
func (e *Entry) StringValue(field, locale string) (string, bool) {
	raw, ok := e.Fields[field][locale]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Title returns the entry's display name for locale, preferring the "name"
// field over "title".
func (e *Entry) Title(locale string) string {
	if s, ok := e.StringValue("name", locale); ok {
		return s
	}
	if s, ok := e.StringValue("title", locale); ok {
		return s
	}
	return ""
}

// FieldValue is one string-valued field/locale pair of an entry.
type FieldValue struct {
	Field  string
	Locale string
	Value  string
}

// StringValues returns every string scalar in the entry, ordered by field
// name then locale.
func (e *Entry) StringValues() []FieldValue {
	var out []FieldValue
	for _, field := range sortedKeys(e.Fields) {
		for _, locale := range sortedKeys(e.Fields[field]) {
			if s, ok := e.StringValue(field, locale); ok {
				out = append(out, FieldValue{Field: field, Locale: locale, Value: s})
			}
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
