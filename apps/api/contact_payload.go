package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// contactPayloadContextKey lets upstream middleware hand over a body it has
// already decoded.
const contactPayloadContextKey = "contactPayload"

const multiValueSeparator = ", "

// Submitted values are plain text. Markup is stripped during normalization so
// a value made only of tags counts as not provided.
var contactValuePolicy = bluemonday.StrictPolicy()

type contactField struct {
	Key     string
	Label   string
	Aliases []string
}

// contactFields is ordered the way fields appear in the notification email.
var contactFields = []contactField{
	{Key: "Full Name / Company", Label: "Name"},
	{Key: "Email", Label: "Email"},
	{Key: "Phone", Label: "Phone"},
	{Key: "Business Description", Label: "Business"},
	{Key: "Goals", Label: "Goals", Aliases: []string{"Goals[]"}},
	{Key: "Pages", Label: "Pages"},
	{Key: "Features", Label: "Features"},
	{Key: "Design Preferences", Label: "Design Preferences"},
	{Key: "Budget", Label: "Budget"},
	{Key: "Timeline", Label: "Timeline"},
	{Key: "Notes", Label: "Notes"},
}

// Submission is one contact form instance. It lives for a single request.
type Submission struct {
	Fields map[string]string
}

func newSubmission(raw map[string]any) *Submission {
	fields := make(map[string]string, len(contactFields))
	for _, field := range contactFields {
		keys := append([]string{field.Key}, field.Aliases...)
		for _, key := range keys {
			value, ok := raw[key]
			if !ok {
				continue
			}
			if text := flattenFieldValue(value); text != "" {
				fields[field.Key] = text
				break
			}
		}
	}
	return &Submission{Fields: fields}
}

// Value returns the flattened value for key and whether it was provided.
func (s *Submission) Value(key string) (string, bool) {
	value, ok := s.Fields[key]
	return value, ok
}

func (s *Submission) ContactEmail() string {
	return s.Fields["Email"]
}

func flattenFieldValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return stripMarkup(v)
	case []string:
		return joinFieldValues(len(v), func(i int) any { return v[i] })
	case []any:
		return joinFieldValues(len(v), func(i int) any { return v[i] })
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case map[string]any:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(encoded)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func stripMarkup(value string) string {
	return strings.TrimSpace(html.UnescapeString(contactValuePolicy.Sanitize(value)))
}

func joinFieldValues(n int, at func(int) any) string {
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if text := flattenFieldValue(at(i)); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, multiValueSeparator)
}

// decodeSubmissionPayload normalizes whatever the transport produced, an
// already decoded value or an undecoded body, into a JSON object.
func decodeSubmissionPayload(src any) (map[string]any, error) {
	switch v := src.(type) {
	case nil:
		return nil, invalidPayload("Request body is empty")
	case map[string]any:
		return v, nil
	case map[string]string:
		out := make(map[string]any, len(v))
		for key, value := range v {
			out[key] = value
		}
		return out, nil
	case json.RawMessage:
		return decodeJSONObject(v)
	case []byte:
		return decodeJSONObject(v)
	case string:
		return decodeJSONObject([]byte(v))
	case io.Reader:
		data, err := io.ReadAll(v)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, &apiError{
					Status:  http.StatusRequestEntityTooLarge,
					Code:    "payload_too_large",
					Message: fmt.Sprintf("Request body exceeds %d bytes", maxErr.Limit),
				}
			}
			return nil, fmt.Errorf("read contact payload: %w", err)
		}
		return decodeJSONObject(data)
	default:
		return nil, invalidPayload("Request body must be a JSON object")
	}
}

func decodeJSONObject(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, invalidPayload("Request body is empty")
	}

	var value any
	if err := json.Unmarshal(trimmed, &value); err != nil {
		return nil, invalidPayload("Request body is not valid JSON")
	}

	object, ok := value.(map[string]any)
	if !ok || object == nil {
		return nil, invalidPayload("Request body must be a JSON object")
	}
	return object, nil
}

func invalidPayload(message string) error {
	return &apiError{Status: http.StatusBadRequest, Code: "invalid_payload", Message: message}
}
