// Package payload builds the Standard Webhooks body delivered to consumers:
// {"type": "...", "timestamp": "...", "data": {...}}.
package payload

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

const messageEventPrefix = "teams.message."

// Hierarchical, full-stop delimited, [a-zA-Z0-9_]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+(\.[a-zA-Z0-9_]+)*$`)

type Payload struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// MessageEventType maps a Graph change type to the event type consumers see
func MessageEventType(changeType string) string {
	return messageEventPrefix + changeType
}

func New(eventType string, data any, timestamp time.Time) (Payload, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Payload{}, fmt.Errorf("marshaling data: %w", err)
	}
	p := Payload{Type: eventType, Timestamp: timestamp.UTC(), Data: raw}
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

func Parse(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("unmarshaling payload: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Payload{}, fmt.Errorf("validating payload: %w", err)
	}
	return p, nil
}

func (p Payload) Validate() error {
	if err := ValidateEventType(p.Type); err != nil {
		return err
	}
	if p.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if len(p.Data) == 0 || !json.Valid(p.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

// Bytes is the minified JSON body
func (p Payload) Bytes() ([]byte, error) {
	return json.Marshal(p)
}

// ValidateEventType accepts a concrete type or a filter ending in ".*"
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if !eventTypePattern.MatchString(strings.TrimSuffix(eventType, ".*")) {
		return fmt.Errorf("event type must be hierarchical and contain only [a-zA-Z0-9_.]: %s", eventType)
	}
	return nil
}

// MatchesEventType reports whether eventType passes filters. An empty filter
// list accepts everything; "teams.message.*" accepts every message event.
func MatchesEventType(eventType string, filters []string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		if filter == eventType {
			return true
		}
		if prefix, ok := strings.CutSuffix(filter, "*"); ok && strings.HasSuffix(prefix, ".") &&
			strings.HasPrefix(eventType, prefix) && len(eventType) > len(prefix) {
			return true
		}
	}
	return false
}
