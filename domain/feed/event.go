// Package feed describes the change events observed on a channel.
package feed

import "fmt"

// Channel is the logical path under which entries are stored and observed.
type Channel string

// DefaultChannel is the path chat messages live under.
const DefaultChannel Channel = "message"

func (c Channel) String() string { return string(c) }

type ChangeKind int

const (
	Added ChangeKind = iota + 1
	Changed
	Removed
	Moved
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Changed:
		return "changed"
	case Removed:
		return "removed"
	case Moved:
		return "moved"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ChangeEvent is one notification of the change-feed.
// Key is assigned by the append collaborator and orders entries of a channel.
type ChangeEvent struct {
	Kind               ChangeKind
	Channel            Channel
	Key                string
	Payload            map[string]any
	PreviousSiblingKey *string
}
