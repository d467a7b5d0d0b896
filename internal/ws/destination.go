package ws

import (
	"path"
	"strings"
)

// Kind classifies a destination by its namespace prefix.
type Kind int

const (
	// KindTopic is a broadcast topic (/topic/**): delivered to every
	// subscriber.
	KindTopic Kind = iota + 1
	// KindQueue is a per-user queue (/queue/{userID}/**).
	KindQueue
	// KindUser is a per-user destination (/user/{userID}/**).
	KindUser
	// KindApp is an inbound application command (/app/**).
	KindApp
)

// Destination is a parsed, immutable destination path.
type Destination struct {
	Path string
	Kind Kind
}

// ParseDestination validates and classifies a raw destination path.
func ParseDestination(raw string) (Destination, error) {
	p := strings.TrimSpace(raw)
	if p == "" || !strings.HasPrefix(p, "/") {
		return Destination{}, ErrInvalidDestination
	}
	p = path.Clean(p)

	var kind Kind
	switch {
	case strings.HasPrefix(p, "/topic/"):
		kind = KindTopic
	case strings.HasPrefix(p, "/queue/"):
		kind = KindQueue
	case strings.HasPrefix(p, "/user/"):
		kind = KindUser
	case strings.HasPrefix(p, "/app/"):
		kind = KindApp
	default:
		return Destination{}, ErrInvalidDestination
	}

	return Destination{Path: p, Kind: kind}, nil
}

// UserScoped reports whether delivery is restricted to the subscriber whose
// principal subject matches the embedded user segment.
func (d Destination) UserScoped() bool {
	return d.Kind == KindQueue || d.Kind == KindUser
}

// Subject returns the user segment of a user-scoped destination
// (/user/{id}/... or /queue/{id}/...), or "" for other kinds.
func (d Destination) Subject() string {
	if !d.UserScoped() {
		return ""
	}
	parts := strings.SplitN(d.Path, "/", 4)
	if len(parts) < 3 {
		return ""
	}
	return parts[2]
}

func (d Destination) String() string {
	return d.Path
}

// UserQueue builds the conventional per-user message queue destination.
func UserQueue(userID, suffix string) Destination {
	return Destination{Path: "/user/" + userID + "/queue/" + suffix, Kind: KindUser}
}

// Topic builds a broadcast topic destination.
func Topic(suffix string) Destination {
	return Destination{Path: "/topic/" + suffix, Kind: KindTopic}
}
