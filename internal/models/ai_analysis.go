package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrAIAnalysisNotObject rejects request bodies whose ai_analysis is an array, string or number
var ErrAIAnalysisNotObject = errors.New("ai_analysis must be a JSON object")

// AIAnalysis is the structured classifier output attached to a complaint.
// The shape depends on the complaint type so it is kept schema-free.
// Stored as JSONB; missing or unreadable values load as an empty object.
type AIAnalysis map[string]interface{}

// Value implements driver.Valuer. An empty analysis is stored as NULL.
func (a AIAnalysis) Value() (driver.Value, error) {
	if len(a) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]interface{}(a))
	if err != nil {
		return nil, fmt.Errorf("marshal ai analysis: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner and never fails on bad data
func (a *AIAnalysis) Scan(src interface{}) error {
	*a = AIAnalysis{}

	var raw []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil || decoded == nil {
		return nil
	}
	*a = decoded
	return nil
}

// MarshalJSON renders a nil analysis as {} rather than null
func (a AIAnalysis) MarshalJSON() ([]byte, error) {
	if a == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]interface{}(a))
}

// UnmarshalJSON accepts an object or null. Any other JSON type is rejected so it
// cannot be silently dropped on the way to storage.
func (a *AIAnalysis) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = AIAnalysis{}
		return nil
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return ErrAIAnalysisNotObject
	}
	*a = decoded
	return nil
}
