package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidResponse is returned by Decode for frames that are not a
	// complete {is_error, severity, message} object.
	ErrInvalidResponse = errors.New("invalid response frame")

	// ErrUnknownSeverity is returned for severities outside 0..3.
	ErrUnknownSeverity = errors.New("unknown severity")

	// ErrInvalidRequest is returned by DecodeRequest for frames that are not a
	// single-key request envelope.
	ErrInvalidRequest = errors.New("invalid request frame")

	// ErrUnknownRequest is returned by DecodeRequest for unrecognised kinds.
	ErrUnknownRequest = errors.New("unknown request kind")
)

// Request is an outbound message. Kind is the envelope key it is sent under.
type Request interface {
	Kind() string
}

// KindSetProject is the envelope key of SetProjectRequest.
const KindSetProject = "SetProject"

// SetProjectRequest asks Cubensis to load the project at ProjectPath.
type SetProjectRequest struct {
	ProjectPath     string `json:"project_path"`
	EnableHotReload bool   `json:"enable_hot_reload"`
}

// Kind implements Request.
func (SetProjectRequest) Kind() string { return KindSetProject }

// Encode wraps req as {"<Kind>": <req>}.
func Encode(req Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", req.Kind(), err)
	}
	return json.Marshal(map[string]json.RawMessage{req.Kind(): body})
}

// DecodeRequest is the inverse of Encode, used on the server side.
func DecodeRequest(raw []byte) (Request, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one key, got %d", ErrInvalidRequest, len(envelope))
	}

	for kind, body := range envelope {
		switch kind {
		case KindSetProject:
			var req SetProjectRequest
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidRequest, kind, err)
			}
			return req, nil
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownRequest, kind)
		}
	}
	panic("unreachable")
}

// Severity classifies how loudly a Response should be shown.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

// Valid reports whether s is one of the four known severities.
func (s Severity) Valid() bool {
	return s >= SeverityNone && s <= SeverityError
}

func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// UnmarshalJSON rejects numbers outside 0..3.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if !Severity(n).Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSeverity, n)
	}
	*s = Severity(n)
	return nil
}

// Response is an inbound status message. Responses are not correlated with
// requests; each one is an independent event on the connection.
type Response struct {
	IsError  bool     `json:"is_error"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Success builds a non-error Response.
func Success(message string, severity Severity) Response {
	return Response{Severity: severity, Message: message}
}

// Failure builds an error Response.
func Failure(message string, severity Severity) Response {
	return Response{IsError: true, Severity: severity, Message: message}
}

// wireResponse detects missing keys, which a plain Response would zero-fill.
type wireResponse struct {
	IsError  *bool     `json:"is_error"`
	Severity *Severity `json:"severity"`
	Message  *string   `json:"message"`
}

// Decode parses one inbound frame. All three keys are required and the
// severity must be known; extra keys are ignored.
func Decode(raw []byte) (Response, error) {
	var w wireResponse
	if err := json.Unmarshal(raw, &w); err != nil {
		if errors.Is(err, ErrUnknownSeverity) {
			return Response{}, fmt.Errorf("decode response: %w", err)
		}
		return Response{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	switch {
	case w.IsError == nil:
		return Response{}, fmt.Errorf("%w: missing is_error", ErrInvalidResponse)
	case w.Severity == nil:
		return Response{}, fmt.Errorf("%w: missing severity", ErrInvalidResponse)
	case w.Message == nil:
		return Response{}, fmt.Errorf("%w: missing message", ErrInvalidResponse)
	}

	return Response{IsError: *w.IsError, Severity: *w.Severity, Message: *w.Message}, nil
}
