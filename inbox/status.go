package inbox

import "fmt"

/* Status tracks an event through delivery:
 * pending -> delivering -> delivered | retrying -> ... -> failed
 */
type Status string

const (
	Pending    Status = "pending"
	Delivering Status = "delivering"
	Delivered  Status = "delivered"
	Retrying   Status = "retrying"
	Failed     Status = "failed"
)

// Statuses lists every valid status in lifecycle order
var Statuses = []Status{Pending, Delivering, Delivered, Retrying, Failed}

func (s Status) String() string {
	return string(s)
}

func (s Status) Validate() error {
	for _, valid := range Statuses {
		if s == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid status: %q", string(s))
}

// IsFinal is true once nothing will be attempted anymore
func (s Status) IsFinal() bool {
	return s == Delivered || s == Failed
}
