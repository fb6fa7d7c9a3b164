package brt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutionMessageUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ExecutionMessage
	}{
		{
			name: "numeric code",
			raw:  `{"code":-3,"codeDesc":"INVALID ZIP","message":"zip not served","severity":"ERROR"}`,
			want: ExecutionMessage{Code: -3, CodeDesc: "INVALID ZIP", Message: "zip not served", Severity: "ERROR"},
		},
		{
			name: "string code",
			raw:  `{"code":"-11","codeDesc":"SHIPMENT NOT FOUND"}`,
			want: ExecutionMessage{Code: -11, CodeDesc: "SHIPMENT NOT FOUND"},
		},
		{
			name: "zero code success",
			raw:  `{"code":0,"message":"OK"}`,
			want: ExecutionMessage{Code: 0, Message: "OK"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ExecutionMessage
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecutionMessageText(t *testing.T) {
	tests := []struct {
		name string
		em   ExecutionMessage
		want string
	}{
		{"desc and message", ExecutionMessage{Code: -3, CodeDesc: "INVALID ZIP", Message: "zip not served"}, "INVALID ZIP: zip not served"},
		{"identical desc and message", ExecutionMessage{CodeDesc: "ERROR", Message: "ERROR"}, "ERROR"},
		{"desc only", ExecutionMessage{CodeDesc: "INVALID ZIP"}, "INVALID ZIP"},
		{"message only", ExecutionMessage{Message: "zip not served"}, "zip not served"},
		{"code fallback", ExecutionMessage{Code: -42}, "execution code -42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.em.Text())
		})
	}
}

func TestCarrierMessagePriority(t *testing.T) {
	execBody := decodeBody([]byte(`{
		"createResponse": {
			"executionMessage": {"code": -3, "codeDesc": "INVALID ZIP"}
		},
		"errors": ["should be shadowed"],
		"message": "also shadowed"
	}`))
	assert.Equal(t, "INVALID ZIP", carrierMessage("create shipment", 200, execBody, "raw"))

	errorsBody := decodeBody([]byte(`{
		"errors": [
			{"code": "E01", "message": "bad depot"},
			"plain text error"
		],
		"message": "shadowed"
	}`))
	assert.Equal(t, "E01: bad depot; plain text error", carrierMessage("op", 400, errorsBody, "raw"))

	messageBody := decodeBody([]byte(`{"message": "  service unavailable  "}`))
	assert.Equal(t, "service unavailable", carrierMessage("op", 503, messageBody, "raw"))

	assert.Equal(t, "plain text body", carrierMessage("op", 500, "plain text body", "plain text body"))

	assert.Equal(t, "delete shipment failed (HTTP 502)", carrierMessage("delete shipment", 502, nil, ""))
}

func TestCarrierMessageTruncatesLongRawBody(t *testing.T) {
	raw := strings.Repeat("x", 900)
	got := carrierMessage("op", 500, raw, raw)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Len(t, []rune(got), maxRawMessageLen+1)
}

func TestMessagesFromErrorList(t *testing.T) {
	assert.Empty(t, messagesFromErrorList(nil))
	assert.Empty(t, messagesFromErrorList([]any{}))
	assert.Empty(t, messagesFromErrorList("not a list"))

	list := []any{
		map[string]any{"description": "fallback description"},
		map[string]any{"code": "E02", "message": "with code"},
		"  trimmed  ",
	}
	assert.Equal(t, "fallback description; E02: with code; trimmed", messagesFromErrorList(list))
}

func TestIntegrationErrorRendering(t *testing.T) {
	err := &IntegrationError{Op: "pudo search", Message: "specify a valid country"}
	assert.Equal(t, "pudo search: specify a valid country", err.Error())

	bare := &IntegrationError{Message: "just a message"}
	assert.Equal(t, "just a message", bare.Error())
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := assert.AnError
	err := &TransportError{Op: "POST /shipments/shipment", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "POST /shipments/shipment")
}
