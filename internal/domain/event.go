package domain

import (
	"time"
)

type EventKind string

const (
	KindPlayerJoined       EventKind = "player_joined"
	KindPlotOpened         EventKind = "plot_opened"
	KindMoveApplied        EventKind = "move_applied"
	KindSettlementRecorded EventKind = "settlement_recorded"
)

// Rank is the default precedence among events sharing a date: joins before
// openings before moves before settlements.
func (k EventKind) Rank() int {
	switch k {
	case KindPlayerJoined:
		return 0
	case KindPlotOpened:
		return 1
	case KindMoveApplied:
		return 2
	case KindSettlementRecorded:
		return 3
	default:
		return 4
	}
}

// TimelineEvent is a closed tagged union over the four dated record kinds.
// Exactly one entity reference is non-nil, matching Kind. Seq is the load
// order within the kind and breaks remaining ties.
type TimelineEvent struct {
	Kind EventKind `json:"kind"`
	Date time.Time `json:"date"`
	Seq  int       `json:"seq"`

	Player     *Player                `json:"player,omitempty"`
	Plot       *Plot                  `json:"plot,omitempty"`
	Move       *Move                  `json:"move,omitempty"`
	Settlement *SettlementTransaction `json:"settlement,omitempty"`
}

// Batch is the full set of loaded records handed to the engine. Slices keep
// the loader's order, which doubles as the tie-break order on the timeline.
type Batch struct {
	Players     []*Player
	Plots       []*Plot
	Moves       []*Move
	Settlements []*SettlementTransaction
}
