package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

// Application error codes, in the implementation-defined server range.
const (
	ErrUnauthorizedCode = -32001
	ErrNotFoundCode     = -32002
	ErrConflictCode     = -32003
	ErrForbiddenCode    = -32004
	ErrBadInputCode     = -32005
)

// Request represents a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      any             `json:"id,omitempty"`
}

// Response represents a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string `json:"jsonrpc"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
	ID      any    `json:"id,omitempty"`
}

// rawResponse is a response as read by a client.
type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
	ID      any             `json:"id"`
}

// Error represents a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewError creates an error object.
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// ParseRequest decodes a single JSON-RPC 2.0 request. Failures are returned
// as *Error carrying the parse or invalid-request code; batches are rejected.
func ParseRequest(body io.Reader) (Request, error) {
	var raw json.RawMessage
	if err := json.NewDecoder(body).Decode(&raw); err != nil {
		return Request{}, NewError(ErrParseCode, "parse error")
	}
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		return Request{}, NewError(ErrInvalidReq, "batch requests are not supported")
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return Request{}, NewError(ErrInvalidReq, "invalid request")
	}
	if req.JSONRPC != "2.0" {
		return Request{}, NewError(ErrInvalidReq, `jsonrpc must be "2.0"`)
	}
	if req.Method == "" {
		return Request{}, NewError(ErrInvalidReq, "method is required")
	}
	return req, nil
}

// WriteResult writes a JSON-RPC success response. A nil result is written as
// an explicit null.
func WriteResult(w http.ResponseWriter, id any, result any) {
	if result == nil {
		result = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	})
}

// WriteError writes a JSON-RPC error response.
func WriteError(w http.ResponseWriter, id any, code int, message string, data any) {
	writeJSON(w, http.StatusOK, Response{
		JSONRPC: "2.0",
		Error: &Error{
			Code:    code,
			Message: message,
			Data:    data,
		},
		ID: id,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
