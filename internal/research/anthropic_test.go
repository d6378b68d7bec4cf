package research

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/models"
)

func sseBody(frames ...string) string {
	var b strings.Builder
	for _, f := range frames {
		b.WriteString("data: ")
		b.WriteString(f)
		b.WriteString("\n\n")
	}
	return b.String()
}

func TestResearchStreamParsesTokensAndSources(t *testing.T) {
	var gotBeta, gotKey string
	var gotReq messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBeta = r.Header.Get("anthropic-beta")
		gotKey = r.Header.Get("x-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody(
			`{"type":"message_start"}`,
			`{"type":"content_block_start","content_block":{"type":"web_search_tool_result","content":[{"type":"web_search_result","title":"Go Blog","url":"https://go.dev/blog/x","page_age":"2 days ago"},{"type":"other","title":"skip me","url":"https://x.test"}]}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"Go is "}}`,
			`{"type":"content_block_delta","delta":{"type":"thinking_delta","text":"hidden"}}`,
			`{"type":"content_block_delta","delta":{"type":"text_delta","text":"fast."}}`,
			`{"type":"message_stop"}`,
		))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{APIKey: "sk-test", BaseURL: srv.URL, ResearchModel: "claude-opus-4-6", MaxWebSearches: 2})
	var events []StreamEvent
	raw, sources, err := c.ResearchStream(context.Background(), "golang performance", search.IntentExploratory, "", func(ev StreamEvent) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("ResearchStream: %v", err)
	}
	if raw != "Go is fast." {
		t.Fatalf("raw = %q", raw)
	}
	if len(sources) != 1 || sources[0].URL != "https://go.dev/blog/x" || sources[0].Snippet != "2 days ago" {
		t.Fatalf("sources = %+v", sources)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 1 source + 2 tokens", len(events))
	}
	if events[0].Type != EventSource || events[1].Type != EventToken || events[2].Type != EventToken {
		t.Fatalf("event order wrong: %v", eventTypes(events))
	}

	if gotBeta != webSearchBeta {
		t.Fatalf("beta header = %q, want %q", gotBeta, webSearchBeta)
	}
	if gotKey != "sk-test" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if !gotReq.Stream {
		t.Fatal("request did not ask for streaming")
	}
	if len(gotReq.Tools) != 1 || gotReq.Tools[0].Type != webSearchTool || gotReq.Tools[0].MaxUses != 2 {
		t.Fatalf("tools = %+v", gotReq.Tools)
	}
	if gotReq.System != SystemPrompt(search.IntentExploratory) {
		t.Fatal("wrong system prompt for exploratory lens")
	}
}

func TestResearchStreamTimeRangeInUserMessage(t *testing.T) {
	var gotReq messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		fmt.Fprint(w, sseBody(`{"type":"message_stop"}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
	if _, _, err := c.ResearchStream(context.Background(), "quantum computing", search.IntentAcademic, "past 6 months", func(StreamEvent) {}); err != nil {
		t.Fatalf("ResearchStream: %v", err)
	}
	if len(gotReq.Messages) != 1 || !strings.Contains(gotReq.Messages[0].Content, "(focus on: past 6 months)") {
		t.Fatalf("user message = %+v", gotReq.Messages)
	}
}

func TestResearchStreamStatusErrors(t *testing.T) {
	cases := []struct {
		status    int
		transient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			fmt.Fprintf(w, `{"error":{"type":"api_error","message":"nope"}}`)
		}))
		c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
		_, _, err := c.ResearchStream(context.Background(), "x", search.IntentExploratory, "", func(StreamEvent) {})
		srv.Close()
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if IsTransient(err) != tc.transient {
			t.Fatalf("status %d: transient = %v, want %v", tc.status, IsTransient(err), tc.transient)
		}
		if !strings.Contains(err.Error(), "nope") {
			t.Fatalf("status %d: error %q should carry upstream message", tc.status, err)
		}
	}
}

func TestStructureParsesSchemaOutput(t *testing.T) {
	var gotReq messageRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		summary := `{"topic":"wrong topic","overview":"Edge AI is moving on-device.","key_points":["npu everywhere"],"trends":"small local models are winning","gaps_and_caveats":"benchmarks vary widely","sources":[]}`
		resp := map[string]any{
			"content": []map[string]any{{"type": "text", "text": summary}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL, StructureModel: "claude-haiku-4"})
	streamed := []models.SourceRef{{Title: "Edge report", URL: "https://example.com/edge", Snippet: ""}}
	summary, err := c.Structure(context.Background(), "edge ai", "raw report text", streamed)
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if summary.Topic != "edge ai" {
		t.Fatalf("topic = %q, want the requested topic, not the model's", summary.Topic)
	}
	if summary.Overview != "Edge AI is moving on-device." {
		t.Fatalf("overview = %q", summary.Overview)
	}
	if len(summary.Sources) != 1 || summary.Sources[0].URL != "https://example.com/edge" {
		t.Fatalf("streamed sources should backfill an empty source list, got %+v", summary.Sources)
	}

	if gotReq.Stream {
		t.Fatal("structuring pass must not stream")
	}
	if gotReq.OutputFormat == nil || gotReq.OutputFormat.Type != "json_schema" {
		t.Fatalf("output format = %+v", gotReq.OutputFormat)
	}
	if len(gotReq.Tools) != 0 {
		t.Fatal("structuring pass must not request tools")
	}
	if !strings.Contains(gotReq.Messages[0].Content, "raw report text") {
		t.Fatal("research report missing from user message")
	}
}

func TestStructureRejectsMalformedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{"content": []map[string]any{{"type": "text", "text": "not json at all"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewAnthropicClient(AnthropicConfig{BaseURL: srv.URL})
	_, err := c.Structure(context.Background(), "x", "raw", nil)
	if err == nil {
		t.Fatal("expected error for non-JSON output")
	}
	if IsTransient(err) {
		t.Fatal("malformed output is not retryable")
	}
}
