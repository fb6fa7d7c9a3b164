package brt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// maxRawMessageLen caps how much of a raw carrier body ends up in an error.
const maxRawMessageLen = 400

// TransportError means the request could not be executed at all: the body
// failed to serialize or the connection never produced a response. HTTP
// error statuses are not transport errors.
type TransportError struct {
	Op    string
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("carrier transport failure during %s: %v", e.Op, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// IntegrationError is the single error type raised by every domain service:
// the carrier answered with a non-2xx status, an embedded negative execution
// code, or a body this layer cannot make sense of. Validation failures
// caught before the network call use the same type, since both are equally
// terminal for the caller.
type IntegrationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *IntegrationError) Error() string {
	if e.Op == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func newIntegrationError(op, format string, args ...any) *IntegrationError {
	return &IntegrationError{Op: op, Message: fmt.Sprintf(format, args...)}
}

// ExecutionMessage is the embedded status object many carrier responses
// carry inside an otherwise success-shaped envelope. A negative code
// signals a logical failure regardless of the HTTP status.
type ExecutionMessage struct {
	Code     int
	CodeDesc string
	Message  string
	Severity string
}

// UnmarshalJSON tolerates the code arriving as a JSON number or a numeric
// string, both of which have been observed on the wire.
func (m *ExecutionMessage) UnmarshalJSON(data []byte) error {
	var raw struct {
		Code     json.Number `json:"code"`
		CodeDesc string      `json:"codeDesc"`
		Message  string      `json:"message"`
		Severity string      `json:"severity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Code != "" {
		if n, err := raw.Code.Int64(); err == nil {
			m.Code = int(n)
		}
	}
	m.CodeDesc = raw.CodeDesc
	m.Message = raw.Message
	m.Severity = raw.Severity
	return nil
}

// Text renders the most descriptive message the execution object carries.
func (m *ExecutionMessage) Text() string {
	desc := strings.TrimSpace(m.CodeDesc)
	msg := strings.TrimSpace(m.Message)
	switch {
	case desc != "" && msg != "" && desc != msg:
		return desc + ": " + msg
	case desc != "":
		return desc
	case msg != "":
		return msg
	default:
		return fmt.Sprintf("execution code %d", m.Code)
	}
}

// executionMessageFromAny extracts an execution message from a decoded
// JSON value, searching the top level and one envelope level down.
func executionMessageFromAny(body any) *ExecutionMessage {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil
	}
	if em := executionMessageFromMap(obj); em != nil {
		return em
	}
	for _, v := range obj {
		if nested, ok := v.(map[string]any); ok {
			if em := executionMessageFromMap(nested); em != nil {
				return em
			}
		}
	}
	return nil
}

func executionMessageFromMap(obj map[string]any) *ExecutionMessage {
	raw, ok := obj["executionMessage"].(map[string]any)
	if !ok {
		return nil
	}
	em := &ExecutionMessage{}
	switch code := raw["code"].(type) {
	case float64:
		em.Code = int(code)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(code)); err == nil {
			em.Code = n
		}
	}
	em.CodeDesc, _ = raw["codeDesc"].(string)
	em.Message, _ = raw["message"].(string)
	em.Severity, _ = raw["severity"].(string)
	return em
}

// carrierMessage derives the most specific human-readable message from a
// carrier response, in documented priority order: execution message,
// errors array, top-level message field, raw body, HTTP status fallback.
func carrierMessage(op string, status int, body any, raw string) string {
	if em := executionMessageFromAny(body); em != nil {
		return em.Text()
	}

	if obj, ok := body.(map[string]any); ok {
		if msg := messagesFromErrorList(obj["errors"]); msg != "" {
			return msg
		}
		if msg, ok := obj["message"].(string); ok && strings.TrimSpace(msg) != "" {
			return strings.TrimSpace(msg)
		}
	}

	if trimmed := strings.TrimSpace(raw); trimmed != "" {
		if len(trimmed) > maxRawMessageLen {
			trimmed = trimmed[:maxRawMessageLen] + "…"
		}
		return trimmed
	}

	return fmt.Sprintf("%s failed (HTTP %d)", op, status)
}

// messagesFromErrorList flattens a carrier errors array. Items may be plain
// strings or objects carrying message/description/code fields.
func messagesFromErrorList(v any) string {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return ""
	}
	var parts []string
	for _, item := range list {
		switch e := item.(type) {
		case string:
			if s := strings.TrimSpace(e); s != "" {
				parts = append(parts, s)
			}
		case map[string]any:
			msg, _ := e["message"].(string)
			if msg == "" {
				msg, _ = e["description"].(string)
			}
			if code, ok := e["code"].(string); ok && code != "" && msg != "" {
				msg = code + ": " + msg
			}
			if s := strings.TrimSpace(msg); s != "" {
				parts = append(parts, s)
			}
		}
	}
	return strings.Join(parts, "; ")
}

// integrationError builds the error for a failed carrier round trip.
func integrationError(op string, res *Result) *IntegrationError {
	return &IntegrationError{
		Op:         op,
		StatusCode: res.StatusCode,
		Message:    carrierMessage(op, res.StatusCode, res.Body, res.RawBody),
	}
}
