package types

// LinkState is the radio association lifecycle.
type LinkState uint8

const (
	LinkUnassociated LinkState = iota
	LinkAssociating
	LinkAssociated
	LinkFailed
)

func (l LinkState) String() string {
	switch l {
	case LinkAssociating:
		return "associating"
	case LinkAssociated:
		return "associated"
	case LinkFailed:
		return "failed"
	default:
		return "unassociated"
	}
}

// State is the application state shared by the components. Ownership:
//   - Profile: persisted only through the profile store.
//   - Alert: written only by the alert transmitter (and the caller's
//     optimistic flip that precedes a transmission).
//   - Link: written only by the connectivity manager.
//   - Reachable: written by the connectivity manager and the alert
//     transmitter after a discovery outcome.
type State struct {
	Profile   DeviceProfile
	Alert     bool
	Link      LinkState
	Reachable bool
}

// Connectivity is the derived {associated, reachable} composite.
type Connectivity uint8

const (
	Associated Connectivity = 1 << iota
	Reachable
)

func (c Connectivity) Has(f Connectivity) bool { return c&f == f }

// Connectivity derives the 2-bit status from s. Reachability without
// association is not reported.
func (s *State) Connectivity() Connectivity {
	var c Connectivity
	if s.Link == LinkAssociated {
		c |= Associated
		if s.Reachable {
			c |= Reachable
		}
	}
	return c
}

// Mode is the single indicator/input state derived from State.
type Mode uint8

const (
	ModeUnconfigured Mode = iota
	ModeAssociating
	ModeServerAbsent
	ModeConnected
	// ModeResetting is entered only by a factory reset; ModeOf never
	// derives it.
	ModeResetting
)

func (m Mode) String() string {
	switch m {
	case ModeAssociating:
		return "associating"
	case ModeServerAbsent:
		return "server_absent"
	case ModeConnected:
		return "connected"
	case ModeResetting:
		return "resetting"
	default:
		return "unconfigured"
	}
}

// ModeOf is the transition function from application state to mode.
func ModeOf(s *State) Mode {
	c := s.Connectivity()
	switch {
	case !s.Profile.Configured:
		return ModeUnconfigured
	case !c.Has(Associated):
		return ModeAssociating
	case !c.Has(Reachable):
		return ModeServerAbsent
	default:
		return ModeConnected
	}
}
