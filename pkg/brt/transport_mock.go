package brt

import (
	"context"
	"sync"
)

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *Request) (*Result, error)

func (f TransportFunc) Send(ctx context.Context, req *Request) (*Result, error) {
	return f(ctx, req)
}

// RecordingTransport is a Transport for tests: it captures every request
// and replays canned results in order, repeating the last one when the
// script runs out.
type RecordingTransport struct {
	mu       sync.Mutex
	requests []*Request
	results  []*Result
	err      error
	next     int
}

// NewRecordingTransport scripts the given results.
func NewRecordingTransport(results ...*Result) *RecordingTransport {
	return &RecordingTransport{results: results}
}

// FailWith makes every Send return err instead of a result.
func (t *RecordingTransport) FailWith(err error) *RecordingTransport {
	t.err = err
	return t
}

func (t *RecordingTransport) Send(_ context.Context, req *Request) (*Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = append(t.requests, req)
	if t.err != nil {
		return nil, t.err
	}
	if len(t.results) == 0 {
		return &Result{StatusCode: 200}, nil
	}
	res := t.results[t.next]
	if t.next < len(t.results)-1 {
		t.next++
	}
	return res, nil
}

// Requests returns the captured requests.
func (t *RecordingTransport) Requests() []*Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Request(nil), t.requests...)
}

// LastRequest returns the most recent request, or nil.
func (t *RecordingTransport) LastRequest() *Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.requests) == 0 {
		return nil
	}
	return t.requests[len(t.requests)-1]
}

// CallCount returns how many requests were sent.
func (t *RecordingTransport) CallCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.requests)
}

// JSONResult builds a Result the way HTTPTransport would, decoding the
// given raw JSON body opportunistically.
func JSONResult(status int, raw string) *Result {
	return &Result{
		StatusCode: status,
		Body:       decodeBody([]byte(raw)),
		RawBody:    raw,
	}
}
