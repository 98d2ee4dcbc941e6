package realtime

import (
	"teamnotes/internal/domain/models/notes"
	"teamnotes/internal/policy"
)

// EventType names a server push event
type EventType string

const (
	EventNoteNew        EventType = "note_new"
	EventNoteDeleted    EventType = "note_deleted"
	EventNoteVisibility EventType = "note_visibility"
)

// Event is what the service publishes to a project room. Notes travel unrendered
// and are presented per recipient.
type Event struct {
	Type      EventType   `json:"type"`
	ProjectID string      `json:"projectId"`
	Note      *notes.Note `json:"note,omitempty"`
	IDs       []string    `json:"ids,omitempty"`
}

// NoteNew builds a note_new event
func NoteNew(note *notes.Note) Event {
	return Event{Type: EventNoteNew, ProjectID: note.ProjectID, Note: note.Clone()}
}

// NoteDeleted builds a note_deleted event for the removed IDs
func NoteDeleted(projectID string, ids []string) Event {
	return Event{Type: EventNoteDeleted, ProjectID: projectID, IDs: append([]string(nil), ids...)}
}

// NoteVisibility builds a note_visibility event after a hide toggle
func NoteVisibility(note *notes.Note) Event {
	return Event{Type: EventNoteVisibility, ProjectID: note.ProjectID, Note: note.Clone()}
}

// Message is the rendered frame a client receives. Seq increases by one per
// publish within a room, so a client that sees a gap knows to re-list.
type Message struct {
	Type      EventType       `json:"type"`
	ProjectID string          `json:"projectId"`
	Seq       uint64          `json:"seq"`
	Note      *notes.NoteView `json:"note,omitempty"`
	IDs       []string        `json:"ids,omitempty"`
}

// render presents the event for a viewer role
func (e Event) render(seq uint64, viewer notes.Role) Message {
	msg := Message{Type: e.Type, ProjectID: e.ProjectID, Seq: seq, IDs: e.IDs}
	if e.Note != nil {
		view := policy.Present(e.Note, viewer)
		msg.Note = &view
	}
	return msg
}
