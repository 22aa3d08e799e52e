// Package testutil provides a mock Buildkite API server for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// APIPrefix is the path prefix the mock serves the API under.
const APIPrefix = "/v2"

// DefaultServerPageSize is the page size used when a request has no per_page.
const DefaultServerPageSize = 30

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// RecordedRequest is a request received by the mock.
type RecordedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Header http.Header
	Body   []byte
}

// MockBuildkite is a configurable mock of the Buildkite REST API.
//
// Collections registered with SetCollection are paged with the page and
// per_page query parameters the way the real API pages them. Paths are
// registered without the /v2 prefix.
type MockBuildkite struct {
	server *httptest.Server
	token  string

	mu          sync.RWMutex
	collections map[string][]json.RawMessage
	objects     map[string]json.RawMessage
	responses   map[string]MockResponse
	pageErrors  map[string]map[int]int
	rateLimit   map[string]string
	requests    []RecordedRequest
}

// NewMockBuildkite starts a mock server that accepts only the given bearer token.
func NewMockBuildkite(token string) *MockBuildkite {
	mock := &MockBuildkite{
		token:       token,
		collections: make(map[string][]json.RawMessage),
		objects:     make(map[string]json.RawMessage),
		responses:   make(map[string]MockResponse),
		pageErrors:  make(map[string]map[int]int),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

// URL returns the server root URL.
func (m *MockBuildkite) URL() string {
	return m.server.URL
}

// BaseURL returns the API root to configure clients with.
func (m *MockBuildkite) BaseURL() string {
	return m.server.URL + APIPrefix
}

// Close shuts down the mock server.
func (m *MockBuildkite) Close() {
	m.server.Close()
}

// SetCollection registers a paged collection. Each item is encoded as JSON.
func (m *MockBuildkite) SetCollection(path string, items any) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal collection: %w", err)
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return fmt.Errorf("collection for %s is not a JSON array: %w", path, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[path] = elements
	return nil
}

// SetObject registers a single JSON document.
func (m *MockBuildkite) SetObject(path string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal object: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = raw
	return nil
}

// SetResponse registers a canned response for every method on path.
func (m *MockBuildkite) SetResponse(path string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[path] = resp
}

// FailPage makes a page of a collection respond with the given status.
func (m *MockBuildkite) FailPage(path string, page, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pageErrors[path] == nil {
		m.pageErrors[path] = make(map[int]int)
	}
	m.pageErrors[path][page] = statusCode
}

// SetRateLimit makes every response carry the given RateLimit-* headers.
func (m *MockBuildkite) SetRateLimit(remaining, limit, resetSeconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimit = map[string]string{
		"RateLimit-Remaining": strconv.Itoa(remaining),
		"RateLimit-Limit":     strconv.Itoa(limit),
		"RateLimit-Reset":     strconv.Itoa(resetSeconds),
	}
}

// Requests returns a copy of every request received so far.
func (m *MockBuildkite) Requests() []RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// GetRequestCount returns the number of requests received.
func (m *MockBuildkite) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// PageRequests returns the page numbers requested for path, in order.
func (m *MockBuildkite) PageRequests(path string) []int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pages []int
	for _, req := range m.requests {
		if req.Path != path || req.Method != http.MethodGet {
			continue
		}
		page, err := strconv.Atoi(firstValue(req.Query, "page"))
		if err != nil {
			page = 1
		}
		pages = append(pages, page)
	}
	return pages
}

// LastRequest returns the most recent request, or nil.
func (m *MockBuildkite) LastRequest() *RecordedRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.requests) == 0 {
		return nil
	}
	req := m.requests[len(m.requests)-1]
	return &req
}

// Reset clears recorded requests.
func (m *MockBuildkite) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = nil
}

func (m *MockBuildkite) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	path := strings.TrimPrefix(r.URL.Path, APIPrefix)

	m.mu.Lock()
	m.requests = append(m.requests, RecordedRequest{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	for key, value := range m.rateLimit {
		w.Header().Set(key, value)
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json; charset=utf-8")

	if r.Header.Get("Authorization") != "Bearer "+m.token {
		writeMessage(w, http.StatusUnauthorized, "Authentication required. Please supply a valid API Access Token")
		return
	}
	if !strings.HasPrefix(r.URL.Path, APIPrefix+"/") {
		writeMessage(w, http.StatusNotFound, "Not Found")
		return
	}

	m.mu.RLock()
	resp, hasResponse := m.responses[path]
	collection, hasCollection := m.collections[path]
	object, hasObject := m.objects[path]
	failStatus := m.pageErrors[path][pageParam(r, "page", 1)]
	m.mu.RUnlock()

	switch {
	case hasResponse:
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		io.WriteString(w, resp.Body)

	case hasCollection && r.Method == http.MethodGet:
		if failStatus != 0 {
			writeMessage(w, failStatus, http.StatusText(failStatus))
			return
		}
		writePage(w, r, collection)

	case hasObject && r.Method == http.MethodGet:
		w.WriteHeader(http.StatusOK)
		w.Write(object)

	default:
		writeMessage(w, http.StatusNotFound, "Not Found")
	}
}

func writePage(w http.ResponseWriter, r *http.Request, collection []json.RawMessage) {
	page := pageParam(r, "page", 1)
	perPage := pageParam(r, "per_page", DefaultServerPageSize)

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(collection) {
		start = len(collection)
	}
	if end > len(collection) {
		end = len(collection)
	}

	items := collection[start:end]
	if items == nil {
		items = []json.RawMessage{}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(items)
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

func pageParam(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
