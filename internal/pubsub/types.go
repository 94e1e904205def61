package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub.
// It doubles as the topic name.
type EventType string

const (
	EventMatchBooked        EventType = "match-booked"
	EventMatchStatusChanged EventType = "match-status-changed"
	EventSlotsGenerated     EventType = "slots-generated"
	EventSlotsDeleted       EventType = "slots-deleted"
)

// MatchEvent is published when a match is created or changes status.
type MatchEvent struct {
	MatchID  string `msgpack:"match_id"`
	SlotDate string `msgpack:"slot_date"`
	Player1  string `msgpack:"player1"`
	Player2  string `msgpack:"player2"`
	GameCode string `msgpack:"game_code"`
	Status   string `msgpack:"status"`
	Previous string `msgpack:"previous,omitempty"`
	Actor    string `msgpack:"actor,omitempty"`
	Reason   string `msgpack:"reason,omitempty"`
}

// SlotsEvent is published after a generation or a deletion.
type SlotsEvent struct {
	Scope          string   `msgpack:"scope"`
	Created        []string `msgpack:"created,omitempty"`
	AlreadyPresent []string `msgpack:"already_present,omitempty"`
	ClosedSkipped  []string `msgpack:"closed_skipped,omitempty"`
	DeletedSlots   int      `msgpack:"deleted_slots,omitempty"`
	DeletedMatches int      `msgpack:"deleted_matches,omitempty"`
}
