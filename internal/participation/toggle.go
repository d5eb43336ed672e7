package participation

// Presence is the stored participation of one member for one schedule.
// The zero value is Absent.
type Presence struct {
	status Status
}

// Absent is the state of a member with no participation row.
var Absent = Presence{}

// Present returns the state of a member whose row holds status.
func Present(status Status) Presence {
	return Presence{status: status}
}

// PresenceOf converts an optional status into a Presence.
func PresenceOf(status *Status) Presence {
	if status == nil {
		return Absent
	}
	return Present(*status)
}

// IsAbsent reports whether no row exists.
func (p Presence) IsAbsent() bool {
	return p.status == ""
}

// Status returns the stored status and whether a row exists.
func (p Presence) Status() (Status, bool) {
	return p.status, p.status != ""
}

func (p Presence) String() string {
	if p.IsAbsent() {
		return "absent"
	}
	return string(p.status)
}

// Action is the backend call needed to move from one Presence to the next.
type Action int

const (
	// ActionSet creates or overwrites the row with the requested status.
	ActionSet Action = iota + 1
	// ActionRemove deletes the row.
	ActionRemove
)

func (a Action) String() string {
	switch a {
	case ActionSet:
		return "set"
	case ActionRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Decide applies the toggle rule: requesting the status already stored clears
// the row, any other request sets it.
func Decide(current Presence, requested Status) Action {
	if stored, ok := current.Status(); ok && stored == requested {
		return ActionRemove
	}
	return ActionSet
}

// Apply returns the Presence that results from requesting status.
func Apply(current Presence, requested Status) Presence {
	if Decide(current, requested) == ActionRemove {
		return Absent
	}
	return Present(requested)
}
