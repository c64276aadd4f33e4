package hal

import "strings"

// Shared helpers used by GPIO code.

// ParsePull accepts "up", "down", "none" and a few aliases.
func ParsePull(s string) Pull {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "pullup":
		return PullUp
	case "down", "pulldown":
		return PullDown
	default:
		return PullNone
	}
}

func (p Pull) String() string {
	switch p {
	case PullUp:
		return "up"
	case PullDown:
		return "down"
	default:
		return "none"
	}
}
