package core

import "fmt"

// EventType names a session notification.
type EventType string

const (
	EventWorldOpened      EventType = "WORLD_OPENED"
	EventWorldClosed      EventType = "WORLD_CLOSED"
	EventWorldSwitched    EventType = "WORLD_SWITCHED"
	EventWorldsReordered  EventType = "WORLDS_REORDERED"
	EventEntryOpened      EventType = "ENTRY_OPENED"
	EventEntryClosed      EventType = "ENTRY_CLOSED"
	EventEntrySwitched    EventType = "ENTRY_SWITCHED"
	EventEntriesReordered EventType = "ENTRIES_REORDERED"
	EventModifiedChanged  EventType = "MODIFIED_CHANGED"
	EventSaveStarted      EventType = "SAVE_STARTED"
	EventSaveFinished     EventType = "SAVE_FINISHED"
	EventKeysClassified   EventType = "KEYS_CLASSIFIED"
	EventSourceChanged    EventType = "SOURCE_CHANGED"
	EventFormatBridged    EventType = "FORMAT_BRIDGED"
)

// Event is a notification emitted by a world session or the session manager.
type Event struct {
	Type  EventType
	World string
	// Entry is the entry id, or zero for world level events.
	Entry    int
	Modified bool
	Path     string
	Message  string
	Err      error
	// Timestamp is a Unix timestamp.
	Timestamp int64
}

func (e Event) String() string {
	s := fmt.Sprintf("%s world=%s", e.Type, e.World)
	if e.Entry != 0 {
		s += fmt.Sprintf(" entry=%d", e.Entry)
	}
	if e.Type == EventModifiedChanged {
		s += fmt.Sprintf(" modified=%t", e.Modified)
	}
	if e.Path != "" {
		s += " path=" + e.Path
	}
	if e.Message != "" {
		s += " msg=" + e.Message
	}
	if e.Err != nil {
		s += " err=" + e.Err.Error()
	}
	return s
}
