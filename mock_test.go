package spyglass

import (
	"database/sql"
	"strings"
	"sync"
)

// mockResult implements sql.Result for test doubles.
type mockResult struct {
	lastInsertID int64
	rowsAffected int64
}

func (r mockResult) LastInsertId() (int64, error) { return r.lastInsertID, nil }
func (r mockResult) RowsAffected() (int64, error) { return r.rowsAffected, nil }

type mockHandler struct {
	match string
	fill  func(dest interface{}, args []interface{})
	err   error
}

// mockConn is an in-memory Conn implementation for unit tests. Handlers are
// registered against a case-insensitive substring of the expected query
// text, first match wins. Every issued query is recorded so tests can assert
// on probe counts. Unhandled queries behave like empty result sets: Get
// returns sql.ErrNoRows, Select leaves dest untouched, and Exec succeeds.
type mockConn struct {
	mu       sync.Mutex
	queries  []string
	handlers []mockHandler
}

func (mc *mockConn) handle(match string, fill func(dest interface{}, args []interface{})) {
	mc.handlers = append(mc.handlers, mockHandler{match: match, fill: fill})
}

func (mc *mockConn) handleError(match string, err error) {
	mc.handlers = append(mc.handlers, mockHandler{match: match, err: err})
}

func (mc *mockConn) record(query string) *mockHandler {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.queries = append(mc.queries, query)
	for n := range mc.handlers {
		if strings.Contains(strings.ToLower(query), strings.ToLower(mc.handlers[n].match)) {
			return &mc.handlers[n]
		}
	}
	return nil
}

func (mc *mockConn) countQueries(substr string) int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	var count int
	for _, query := range mc.queries {
		if strings.Contains(strings.ToLower(query), strings.ToLower(substr)) {
			count++
		}
	}
	return count
}

func (mc *mockConn) Get(dest interface{}, query string, args ...interface{}) error {
	handler := mc.record(query)
	if handler == nil {
		return sql.ErrNoRows
	}
	if handler.err != nil {
		return handler.err
	}
	if handler.fill != nil {
		handler.fill(dest, args)
	}
	return nil
}

func (mc *mockConn) Select(dest interface{}, query string, args ...interface{}) error {
	handler := mc.record(query)
	if handler == nil {
		return nil
	}
	if handler.err != nil {
		return handler.err
	}
	if handler.fill != nil {
		handler.fill(dest, args)
	}
	return nil
}

func (mc *mockConn) Exec(query string, args ...interface{}) (sql.Result, error) {
	handler := mc.record(query)
	if handler != nil && handler.err != nil {
		return nil, handler.err
	}
	return mockResult{rowsAffected: 1}, nil
}
