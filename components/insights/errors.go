package insights

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

var (
	ErrUnknownCollection = errors.New("insights: unknown collection")
	ErrUnknownAnalysis   = errors.New("insights: unknown analysis")
	ErrUnknownModal      = errors.New("insights: unknown modal")
	ErrModalNotOpen      = errors.New("insights: modal is not open")
	ErrUnknownWidget     = errors.New("insights: unknown widget")
	ErrUnknownTab        = errors.New("insights: unknown details tab")
	ErrInvalidFilter     = errors.New("insights: invalid filter")
	ErrInvalidLayout     = errors.New("insights: invalid layout")
)

// ErrorKind classifies gateway failures.
type ErrorKind string

const (
	// ErrorTransport covers network failures and undecodable success bodies.
	ErrorTransport ErrorKind = "transport"
	// ErrorStatus is a non-success response carrying an error message in its body.
	ErrorStatus ErrorKind = "status"
	// ErrorUnstructured is a non-success response without a usable body.
	ErrorUnstructured ErrorKind = "unstructured"
)

// FetchError is the single error contract surfaced by a Gateway.
type FetchError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Message
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure that happened before an HTTP status was available.
func TransportError(err error) *FetchError {
	msg := "Erro de conexão"
	if err != nil {
		msg = fmt.Sprintf("Erro de conexão: %v", err)
	}
	return &FetchError{Kind: ErrorTransport, Message: msg, Err: err}
}

// StatusError builds the message for a non-success response using the canonical
// reason phrase for status.
func StatusError(status int, body []byte) *FetchError {
	return StatusErrorReason(status, "", body)
}

// StatusErrorReason builds the message for a non-success response. A JSON body with an
// "error" (or "message") field wins; anything else falls back to the status line as the
// server sent it. An empty reason uses the canonical phrase.
func StatusErrorReason(status int, reason string, body []byte) *FetchError {
	var parsed struct {
		Error   any `json:"error"`
		Message any `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if msg := bodyMessage(parsed.Error); msg != "" {
			return &FetchError{Kind: ErrorStatus, Status: status, Message: msg}
		}
		if msg := bodyMessage(parsed.Message); msg != "" {
			return &FetchError{Kind: ErrorStatus, Status: status, Message: msg}
		}
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = http.StatusText(status)
	}
	return &FetchError{
		Kind:    ErrorUnstructured,
		Status:  status,
		Message: fmt.Sprintf("Erro HTTP: %d - %s", status, reason),
	}
}

// ReasonPhrase strips the numeric code from an HTTP status line such as "418 I'm a teapot".
func ReasonPhrase(status string) string {
	status = strings.TrimSpace(status)
	code, reason, found := strings.Cut(status, " ")
	if !found {
		if _, err := strconv.Atoi(code); err == nil {
			return ""
		}
		return status
	}
	if _, err := strconv.Atoi(code); err != nil {
		return status
	}
	return strings.TrimSpace(reason)
}

func bodyMessage(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// ErrorMessage extracts the user-facing message of any error.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.Message
	}
	return err.Error()
}
