package research

import (
	"encoding/json"
	"fmt"

	"github.com/mohammad-safakhou/topicradar/models"
)

// EventType tags a StreamEvent. The set is closed; consumers switch on it
// exhaustively instead of dispatching on free-form strings.
type EventType string

const (
	EventStatus     EventType = "status"
	EventToken      EventType = "token"
	EventSource     EventType = "source"
	EventStructured EventType = "structured"
	EventHistoryID  EventType = "history_id"
	EventError      EventType = "error"
	EventDone       EventType = "done"
)

// StreamEvent is one step of a research run's progress. Exactly one payload
// field is set, determined by Type. Within a run the sequence follows
// Status* (Token|Source)* Structured? HistoryId? Error? Done, with Done
// always last.
type StreamEvent struct {
	Type      EventType
	Text      string               // EventStatus, EventToken
	Message   string               // EventError (sanitised, user-safe)
	HistoryID int64                // EventHistoryID
	Source    *models.SourceRef    // EventSource
	Summary   *models.TopicSummary // EventStructured
}

func StatusEvent(text string) StreamEvent  { return StreamEvent{Type: EventStatus, Text: text} }
func TokenEvent(text string) StreamEvent   { return StreamEvent{Type: EventToken, Text: text} }
func ErrorEvent(message string) StreamEvent {
	return StreamEvent{Type: EventError, Message: message}
}
func DoneEvent() StreamEvent { return StreamEvent{Type: EventDone} }

func SourceEvent(src models.SourceRef) StreamEvent {
	return StreamEvent{Type: EventSource, Source: &src}
}

func StructuredEvent(summary models.TopicSummary) StreamEvent {
	return StreamEvent{Type: EventStructured, Summary: &summary}
}

func HistoryIDEvent(id int64) StreamEvent {
	return StreamEvent{Type: EventHistoryID, HistoryID: id}
}

// MarshalJSON renders the wire shape the dashboard consumes: a flat object
// with a type discriminator and the payload under a type-specific key.
func (e StreamEvent) MarshalJSON() ([]byte, error) {
	switch e.Type {
	case EventStatus, EventToken:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			Text string    `json:"text"`
		}{e.Type, e.Text})
	case EventSource:
		return json.Marshal(struct {
			Type EventType         `json:"type"`
			Data *models.SourceRef `json:"data"`
		}{e.Type, e.Source})
	case EventStructured:
		return json.Marshal(struct {
			Type EventType            `json:"type"`
			Data *models.TopicSummary `json:"data"`
		}{e.Type, e.Summary})
	case EventHistoryID:
		return json.Marshal(struct {
			Type EventType `json:"type"`
			ID   int64     `json:"id"`
		}{e.Type, e.HistoryID})
	case EventError:
		return json.Marshal(struct {
			Type    EventType `json:"type"`
			Message string    `json:"message"`
		}{e.Type, e.Message})
	case EventDone:
		return json.Marshal(struct {
			Type EventType `json:"type"`
		}{e.Type})
	}
	return nil, fmt.Errorf("unknown event type %q", e.Type)
}
