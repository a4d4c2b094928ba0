// Package testutil provides an in-process Content Management API server for
// tests of the contentful client and the commands built on it.
package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/nicholasrussellconsulting/contentful-utility-suite/internal/types"
)

// RecordedRequest stores information about a request made to the mock server.
type RecordedRequest struct {
	Method  string
	Path    string
	Query   string
	Headers http.Header
	Body    []byte
}

// MockCMAServer serves spaces, environments, entries and assets from memory.
// Paths follow the real API: /spaces/{space}/environments/{env}/entries/{id}.
type MockCMAServer struct {
	Server *httptest.Server
	mu     sync.RWMutex

	requests []RecordedRequest

	token        string
	spaces       map[string]string // id -> name
	environments map[string][]envRecord
	entries      map[string]map[string]json.RawMessage // "space/env" -> id -> body
	assets       map[string]map[string]json.RawMessage

	// Error simulation
	serverErrors   int
	rateLimitCount int
}

type envRecord struct {
	id      string
	aliases []string
}

// NewMockCMAServer starts a server that accepts only token.
func NewMockCMAServer(token string) *MockCMAServer {
	m := &MockCMAServer{
		token:        token,
		spaces:       make(map[string]string),
		environments: make(map[string][]envRecord),
		entries:      make(map[string]map[string]json.RawMessage),
		assets:       make(map[string]map[string]json.RawMessage),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handleRequest))
	return m
}

// URL returns the mock server URL.
func (m *MockCMAServer) URL() string {
	return m.Server.URL
}

// Close shuts down the mock server.
func (m *MockCMAServer) Close() {
	m.Server.Close()
}

// AddSpace registers a space.
func (m *MockCMAServer) AddSpace(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spaces[id] = name
}

// AddEnvironment registers an environment and the aliases pointing at it.
func (m *MockCMAServer) AddEnvironment(spaceID, envID string, aliases ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.environments[spaceID] = append(m.environments[spaceID], envRecord{id: envID, aliases: aliases})
}

// AddEntry stores an entry whose fields are given as field -> locale -> value.
func (m *MockCMAServer) AddEntry(spaceID, envID, id, contentType string, fields map[string]map[string]interface{}) {
	body := map[string]interface{}{
		"sys": map[string]interface{}{
			"id":          id,
			"type":        "Entry",
			"contentType": types.NewLink("ContentType", contentType),
		},
		"fields": fields,
	}
	m.put(m.entries, spaceID, envID, id, body)
}

// AddAsset stores an asset.
func (m *MockCMAServer) AddAsset(spaceID, envID, id string) {
	body := map[string]interface{}{
		"sys":    map[string]interface{}{"id": id, "type": "Asset"},
		"fields": map[string]interface{}{"title": map[string]string{"en-US": id}},
	}
	m.put(m.assets, spaceID, envID, id, body)
}

func (m *MockCMAServer) put(store map[string]map[string]json.RawMessage, spaceID, envID, id string, body interface{}) {
	raw, _ := json.Marshal(body)
	m.mu.Lock()
	defer m.mu.Unlock()
	key := spaceID + "/" + envID
	if store[key] == nil {
		store[key] = make(map[string]json.RawMessage)
	}
	store[key][id] = raw
}

// SetServerErrors makes the next n requests fail with 500.
func (m *MockCMAServer) SetServerErrors(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.serverErrors = n
}

// SetRateLimited makes the next n requests fail with 429.
func (m *MockCMAServer) SetRateLimited(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitCount = n
}

// GetRequests returns all recorded requests.
func (m *MockCMAServer) GetRequests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]RecordedRequest, len(m.requests))
	copy(result, m.requests)
	return result
}

// GetRequestCount returns the number of recorded requests.
func (m *MockCMAServer) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// ClearRequests clears all recorded requests.
func (m *MockCMAServer) ClearRequests() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func (m *MockCMAServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method:  r.Method,
		Path:    r.URL.Path,
		Query:   r.URL.RawQuery,
		Headers: r.Header.Clone(),
		Body:    body,
	})
	rateLimited := m.rateLimitCount > 0
	if rateLimited {
		m.rateLimitCount--
	}
	serverError := !rateLimited && m.serverErrors > 0
	if serverError {
		m.serverErrors--
	}
	m.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+m.token {
		writeError(w, http.StatusUnauthorized, "AccessTokenInvalid", "The access token you sent could not be found or is invalid.")
		return
	}
	if rateLimited {
		w.Header().Set("X-Contentful-RateLimit-Reset", "1")
		writeError(w, http.StatusTooManyRequests, "RateLimitExceeded", "You have exceeded the rate limit of the Organization this Space belongs to.")
		return
	}
	if serverError {
		writeError(w, http.StatusInternalServerError, "ServerError", "Internal server error")
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 2 && parts[0] == "spaces":
		m.serveSpace(w, parts[1])
	case len(parts) == 3 && parts[2] == "environments":
		m.serveEnvironments(w, parts[1])
	case len(parts) == 4 && parts[2] == "environments":
		m.serveEnvironment(w, parts[1], parts[3])
	case len(parts) == 6 && parts[4] == "entries":
		m.serveRecord(w, m.entries, parts[1]+"/"+parts[3], parts[5])
	case len(parts) == 6 && parts[4] == "assets":
		m.serveRecord(w, m.assets, parts[1]+"/"+parts[3], parts[5])
	case len(parts) == 5 && parts[4] == "entries":
		m.serveEntryCollection(w, r, parts[1]+"/"+parts[3])
	default:
		writeNotFound(w)
	}
}

func (m *MockCMAServer) serveSpace(w http.ResponseWriter, spaceID string) {
	name, ok := m.spaces[spaceID]
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, map[string]interface{}{
		"name": name,
		"sys":  map[string]string{"id": spaceID, "type": "Space"},
	})
}

func (m *MockCMAServer) serveEnvironments(w http.ResponseWriter, spaceID string) {
	if _, ok := m.spaces[spaceID]; !ok {
		writeNotFound(w)
		return
	}
	items := make([]interface{}, 0, len(m.environments[spaceID]))
	for _, env := range m.environments[spaceID] {
		aliases := make([]types.Link, 0, len(env.aliases))
		for _, a := range env.aliases {
			aliases = append(aliases, types.NewLink("EnvironmentAlias", a))
		}
		items = append(items, map[string]interface{}{
			"name": env.id,
			"sys": map[string]interface{}{
				"id":      env.id,
				"type":    "Environment",
				"aliases": aliases,
			},
		})
	}
	writeJSON(w, map[string]interface{}{"total": len(items), "skip": 0, "limit": 100, "items": items})
}

func (m *MockCMAServer) serveEnvironment(w http.ResponseWriter, spaceID, envID string) {
	if _, ok := m.spaces[spaceID]; !ok {
		writeNotFound(w)
		return
	}
	for _, env := range m.environments[spaceID] {
		if env.id != envID && !contains(env.aliases, envID) {
			continue
		}
		writeJSON(w, map[string]interface{}{
			"name": env.id,
			"sys":  map[string]interface{}{"id": env.id, "type": "Environment"},
		})
		return
	}
	writeNotFound(w)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m *MockCMAServer) serveRecord(w http.ResponseWriter, store map[string]map[string]json.RawMessage, key, id string) {
	raw, ok := store[key][id]
	if !ok {
		writeNotFound(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(raw)
}

func (m *MockCMAServer) serveEntryCollection(w http.ResponseWriter, r *http.Request, key string) {
	ids := make([]string, 0, len(m.entries[key]))
	for id := range m.entries[key] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	contentType := r.URL.Query().Get("content_type")
	var items []json.RawMessage
	for _, id := range ids {
		raw := m.entries[key][id]
		if contentType != "" {
			var e types.Entry
			if err := json.Unmarshal(raw, &e); err != nil || e.ContentTypeID() != contentType {
				continue
			}
		}
		items = append(items, raw)
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 100
	}
	total := len(items)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	page := items[skip:end]
	if page == nil {
		page = []json.RawMessage{}
	}
	writeJSON(w, map[string]interface{}{"total": total, "skip": skip, "limit": limit, "items": page})
}

func writeNotFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "NotFound", "The resource could not be found.")
}

func writeError(w http.ResponseWriter, status int, id, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"sys":       map[string]string{"type": "Error", "id": id},
		"message":   message,
		"requestId": "mock-request",
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
	}
}
