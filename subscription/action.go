package subscription

/* Action tells what Ensure had to do to leave a usable subscription behind
 */
type Action int

const (
	ActionValid Action = iota + 1
	ActionRenewed
	ActionCreated
)

func (a Action) String() string {
	switch a {
	case ActionValid:
		return "valid"
	case ActionRenewed:
		return "renewed"
	case ActionCreated:
		return "created"
	default:
		return "unknown"
	}
}
