package research

import (
	"encoding/json"
	"testing"

	"github.com/mohammad-safakhou/topicradar/models"
)

func TestStreamEventWireShapes(t *testing.T) {
	cases := []struct {
		ev   StreamEvent
		want string
	}{
		{StatusEvent("Researching topic..."), `{"type":"status","text":"Researching topic..."}`},
		{TokenEvent("hello"), `{"type":"token","text":"hello"}`},
		{SourceEvent(models.SourceRef{Title: "T", URL: "https://a.test", Snippet: ""}), `{"type":"source","data":{"title":"T","url":"https://a.test","snippet":""}}`},
		{HistoryIDEvent(42), `{"type":"history_id","id":42}`},
		{ErrorEvent("boom"), `{"type":"error","message":"boom"}`},
		{DoneEvent(), `{"type":"done"}`},
	}
	for _, tc := range cases {
		got, err := json.Marshal(tc.ev)
		if err != nil {
			t.Fatalf("marshal %s: %v", tc.ev.Type, err)
		}
		if string(got) != tc.want {
			t.Errorf("marshal %s = %s, want %s", tc.ev.Type, got, tc.want)
		}
	}
}

func TestStreamEventUnknownTypeFails(t *testing.T) {
	if _, err := json.Marshal(StreamEvent{Type: "bogus"}); err == nil {
		t.Fatal("expected error for unknown event type")
	}
}
