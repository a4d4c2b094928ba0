package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// MalformedLink is a link-shaped field value that cannot be followed.
type MalformedLink struct {
	Field  string          `json:"field"`
	Locale string          `json:"locale"`
	Raw    json.RawMessage `json:"raw"`
	Reason string          `json:"reason"`
}

// LinkScan is the result of scanning an entry's fields for links.
type LinkScan struct {
	Links     []Link
	Malformed []MalformedLink
}

// Links returns the followable links of the entry. See ScanLinks.
func (e *Entry) Links() []Link {
	return e.ScanLinks().Links
}

// ScanLinks walks every field's every locale value and collects links.
// A value is either a single link or a sequence whose link-shaped elements
// are collected; anything else is ignored. Link-shaped values lacking an id
// or carrying an unknown linkType are reported as malformed.
// Links are returned in field then locale order, then sequence order.
func (e *Entry) ScanLinks() LinkScan {
	var scan LinkScan
	for _, field := range sortedKeys(e.Fields) {
		locales := e.Fields[field]
		for _, locale := range sortedKeys(locales) {
			raw := bytes.TrimSpace(locales[locale])
			if len(raw) == 0 {
				continue
			}
			switch raw[0] {
			case '{':
				scan.add(field, locale, raw)
			case '[':
				var elems []json.RawMessage
				if err := json.Unmarshal(raw, &elems); err != nil {
					continue
				}
				for _, elem := range elems {
					scan.add(field, locale, bytes.TrimSpace(elem))
				}
			}
		}
	}
	return scan
}

func (s *LinkScan) add(field, locale string, raw json.RawMessage) {
	link, shaped, reason := parseLink(raw)
	if !shaped {
		return
	}
	if reason != "" {
		s.Malformed = append(s.Malformed, MalformedLink{Field: field, Locale: locale, Raw: raw, Reason: reason})
		return
	}
	s.Links = append(s.Links, link)
}

// parseLink decodes raw as a link. shaped is false when raw does not look
// like a link at all; reason is set when it does but cannot be followed.
func parseLink(raw json.RawMessage) (link Link, shaped bool, reason string) {
	if len(raw) == 0 || raw[0] != '{' {
		return Link{}, false, ""
	}
	var obj struct {
		Sys map[string]any `json:"sys"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil || obj.Sys == nil {
		return Link{}, false, ""
	}
	typ, _ := obj.Sys["type"].(string)
	lt, hasLinkType := obj.Sys["linkType"]
	if typ != "Link" && !hasLinkType {
		return Link{}, false, ""
	}

	id, _ := obj.Sys["id"].(string)
	if id == "" {
		return Link{}, true, "missing id"
	}
	linkType, _ := lt.(string)
	if !LinkType(linkType).IsValid() {
		return Link{}, true, fmt.Sprintf("unsupported linkType %q", linkType)
	}
	return NewLink(LinkType(linkType), id), true, ""
}
