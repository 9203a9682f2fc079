package notification

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidPayload          = errors.New("invalid notification payload")
	ErrInvalidLifecyclePayload = errors.New("invalid lifecycle notification payload")
	ErrClientStateMismatch     = errors.New("client state mismatch")
)

// ParseEnvelope accepts any JSON object whose value member is an array
func ParseEnvelope(body []byte) (Envelope, error) {
	var raw struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	value := bytes.TrimSpace(raw.Value)
	if len(value) == 0 || value[0] != '[' {
		return Envelope{}, fmt.Errorf("%w: value must be an array", ErrInvalidPayload)
	}

	var envelope Envelope
	if err := json.Unmarshal(value, &envelope.Value); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return envelope, nil
}

// ParseLifecycle requires the first notification to name a lifecycle event
func ParseLifecycle(body []byte) (Envelope, error) {
	envelope, err := ParseEnvelope(body)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrInvalidLifecyclePayload, err)
	}
	if len(envelope.Value) == 0 || envelope.Value[0].LifecycleEvent == "" {
		return Envelope{}, fmt.Errorf("%w: missing lifecycleEvent", ErrInvalidLifecyclePayload)
	}
	return envelope, nil
}

// Event is the lifecycle event carried by the first notification
func (e Envelope) Event() LifecycleEvent {
	if len(e.Value) == 0 {
		return ""
	}
	return e.Value[0].LifecycleEvent
}

// VerifyClientState fails when any notification carries a client state other than expected
func (e Envelope) VerifyClientState(expected string) error {
	for i, n := range e.Value {
		if n.ClientState != expected {
			return fmt.Errorf("%w: notification %d for subscription %q", ErrClientStateMismatch, i, n.SubscriptionID)
		}
	}
	return nil
}
