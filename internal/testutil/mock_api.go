// Package testutil provides testing utilities for the holdings collector.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// EquityTableTitle mirrors the title of the equity table in real responses.
const EquityTableTitle = "股票"

// MockResponse defines the behavior of the mock API for one date.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockRequest is a decoded request received by the mock.
type MockRequest struct {
	FundID     string `json:"FundID"`
	SearchDate string `json:"SearchDate"`
}

// MockFundAPI is a configurable fund assets API for tests.
// Dates without a configured response get an empty equity table, which is
// what the real API returns on non-trading days.
type MockFundAPI struct {
	server    *httptest.Server
	mu        sync.RWMutex
	responses map[string]MockResponse

	requests          []MockRequest
	lastRequestHeader http.Header
	lastMethod        string
}

// NewMockFundAPI creates and starts a mock API server.
func NewMockFundAPI() *MockFundAPI {
	mock := &MockFundAPI{
		responses: make(map[string]MockResponse),
	}
	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))
	return mock
}

func (m *MockFundAPI) handle(w http.ResponseWriter, r *http.Request) {
	var req MockRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.lastRequestHeader = r.Header.Clone()
	m.lastMethod = r.Method
	resp, ok := m.responses[req.SearchDate]
	m.mu.Unlock()

	if !ok {
		resp = NewHoldingsResponse()
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// URL returns the mock server URL.
func (m *MockFundAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockFundAPI) Close() {
	m.server.Close()
}

// SetResponse configures the response for a YYYY-MM-DD date.
func (m *MockFundAPI) SetResponse(date string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[date] = resp
}

// SetHoldings configures a 200 response listing rows in the equity table.
func (m *MockFundAPI) SetHoldings(date string, rows ...[]any) {
	m.SetResponse(date, NewHoldingsResponse(rows...))
}

// Requests returns the decoded requests in arrival order.
func (m *MockFundAPI) Requests() []MockRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]MockRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

// RequestCount returns the number of requests made to the server.
func (m *MockFundAPI) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.requests)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockFundAPI) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// LastMethod returns the HTTP method of the most recent request.
func (m *MockFundAPI) LastMethod() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastMethod
}

// Row builds an equity table row.
func Row(symbol, name, shares, weight string) []any {
	return []any{symbol, name, shares, weight}
}

// HoldingsBody renders a fund assets response whose equity table holds rows.
func HoldingsBody(rows ...[]any) string {
	if rows == nil {
		rows = [][]any{}
	}
	body := map[string]any{
		"StatusCode": 0,
		"Message":    "",
		"Entries": map[string]any{
			"Data": map[string]any{
				"Table": []any{
					map[string]any{
						"TableTitle": EquityTableTitle,
						"Columns":    []string{"股票代號", "股票名稱", "股數", "權重(%)"},
						"Rows":       rows,
					},
				},
			},
		},
	}
	b, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// NewHoldingsResponse creates a 200 OK response with the given equity rows.
func NewHoldingsResponse(rows ...[]any) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       HoldingsBody(rows...),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewNotFoundResponse creates a 404 Not Found response.
func NewNotFoundResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusNotFound,
		Body:       `{"error": "Not found"}`,
	}
}

// NewMalformedResponse creates a 200 OK response whose body is not JSON.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `<html><body>maintenance</body></html>`,
		Headers: map[string]string{
			"Content-Type": "text/html",
		},
	}
}

// NewSlowResponse wraps resp so it is delayed by d.
func NewSlowResponse(resp MockResponse, d time.Duration) MockResponse {
	resp.Delay = d
	return resp
}
