package subscription

import "time"

/* State is what the service remembers about its single remote subscription
 * Both fields are empty until the first successful Ensure
 */
type State struct {
	ID        string
	ExpiresAt time.Time
}

// Endpoints are the public URLs Graph posts notifications to
type Endpoints struct {
	NotificationURL string
	LifecycleURL    string
}

type Result struct {
	ID        string
	ExpiresAt time.Time
	Action    Action
}

// State returns the values to persist after Ensure
func (r Result) State() State {
	return State{ID: r.ID, ExpiresAt: r.ExpiresAt}
}
