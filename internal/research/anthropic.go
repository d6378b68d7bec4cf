package research

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mohammad-safakhou/topicradar/internal/search"
	"github.com/mohammad-safakhou/topicradar/models"
)

const (
	anthropicVersion = "2023-06-01"
	webSearchBeta    = "web-search-2025-03-05"
	webSearchTool    = "web_search_20250305"
)

// AnthropicConfig carries everything the client needs to talk to the hosted
// model API. BaseURL is overridable for tests.
type AnthropicConfig struct {
	APIKey         string
	BaseURL        string
	ResearchModel  string
	StructureModel string
	MaxTokens      int
	MaxWebSearches int
	MaxSources     int
	Timeout        time.Duration
}

// AnthropicClient implements Provider against the Anthropic Messages API.
// It speaks the raw HTTP wire format: a streaming call with the server-side
// web_search tool for research, and a schema-constrained non-streaming call
// for structuring.
type AnthropicClient struct {
	cfg    AnthropicConfig
	client *http.Client
}

func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.MaxWebSearches == 0 {
		cfg.MaxWebSearches = 3
	}
	if cfg.MaxSources == 0 {
		cfg.MaxSources = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &AnthropicClient{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type messageRequest struct {
	Model        string          `json:"model"`
	MaxTokens    int             `json:"max_tokens"`
	System       string          `json:"system,omitempty"`
	Messages     []chatMessage   `json:"messages"`
	Stream       bool            `json:"stream,omitempty"`
	Tools        []toolSpec      `json:"tools,omitempty"`
	OutputFormat *outputFormat   `json:"output_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type toolSpec struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	MaxUses int    `json:"max_uses,omitempty"`
}

type outputFormat struct {
	Type   string          `json:"type"`
	Schema json.RawMessage `json:"schema"`
}

// streamChunk is the subset of the SSE payload we act on. Everything else
// (ping, message_delta, thinking blocks) is skipped.
type streamChunk struct {
	Type         string `json:"type"`
	ContentBlock *struct {
		Type    string `json:"type"`
		Content []struct {
			Type    string `json:"type"`
			Title   string `json:"title"`
			URL     string `json:"url"`
			PageAge string `json:"page_age"`
		} `json:"content"`
	} `json:"content_block"`
	Delta *struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type messageResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ResearchStream runs the search-augmented generation pass, relaying tokens
// and discovered sources through emit as they arrive.
func (c *AnthropicClient) ResearchStream(ctx context.Context, topic string, intent search.Intent, timeRange string, emit func(StreamEvent)) (string, []models.SourceRef, error) {
	userMessage := "Research this topic in depth: " + topic
	if timeRange != "" {
		userMessage += fmt.Sprintf(" (focus on: %s)", timeRange)
	}
	req := messageRequest{
		Model:     c.cfg.ResearchModel,
		MaxTokens: c.cfg.MaxTokens,
		System:    SystemPrompt(intent),
		Messages:  []chatMessage{{Role: "user", Content: userMessage}},
		Stream:    true,
		Tools:     []toolSpec{{Type: webSearchTool, Name: "web_search", MaxUses: c.cfg.MaxWebSearches}},
	}

	resp, err := c.post(ctx, req, true)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()

	var (
		text    strings.Builder
		sources []models.SourceRef
	)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "" || payload == "[DONE]" {
			continue
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		switch chunk.Type {
		case "content_block_start":
			if chunk.ContentBlock == nil || chunk.ContentBlock.Type != "web_search_tool_result" {
				continue
			}
			for _, item := range chunk.ContentBlock.Content {
				if item.Type != "web_search_result" {
					continue
				}
				src := models.SourceRef{Title: item.Title, URL: item.URL, Snippet: item.PageAge}
				sources = append(sources, src)
				emit(SourceEvent(src))
			}
		case "content_block_delta":
			if chunk.Delta == nil || chunk.Delta.Type != "text_delta" {
				continue
			}
			text.WriteString(chunk.Delta.Text)
			emit(TokenEvent(chunk.Delta.Text))
		case "error":
			msg := "stream error"
			if chunk.Error != nil {
				msg = chunk.Error.Message
			}
			return "", nil, &UpstreamError{Message: msg, Transient: chunk.Error != nil && chunk.Error.Type == "overloaded_error"}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return "", nil, ctx.Err()
		}
		return "", nil, &UpstreamError{Message: fmt.Sprintf("stream read: %v", err), Transient: true}
	}
	return text.String(), sources, nil
}

// topicSummarySchema constrains the structuring pass. Every field is required
// so a non-conforming answer fails parsing instead of silently degrading.
var topicSummarySchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"topic": {"type": "string"},
		"overview": {"type": "string", "description": "2-4 sentence overview of the topic."},
		"key_points": {"type": "array", "items": {"type": "string"}},
		"trends": {"type": "string"},
		"gaps_and_caveats": {"type": "string"},
		"sources": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"title": {"type": "string"},
					"url": {"type": "string"},
					"snippet": {"type": "string"}
				},
				"required": ["title", "url", "snippet"],
				"additionalProperties": false
			}
		}
	},
	"required": ["topic", "overview", "key_points", "trends", "gaps_and_caveats", "sources"],
	"additionalProperties": false
}`)

// Structure converts the raw research text into a validated TopicSummary via
// a non-streaming schema-constrained call.
func (c *AnthropicClient) Structure(ctx context.Context, topic, raw string, sources []models.SourceRef) (models.TopicSummary, error) {
	var sourceList strings.Builder
	for _, s := range sources {
		fmt.Fprintf(&sourceList, "- %s: %s\n", s.Title, s.URL)
	}
	if sourceList.Len() == 0 {
		sourceList.WriteString("(none)\n")
	}
	userContent := fmt.Sprintf("Topic: %s\n\nSources:\n%s\nResearch report:\n%s", topic, sourceList.String(), raw)

	req := messageRequest{
		Model:        c.cfg.StructureModel,
		MaxTokens:    4096,
		System:       structureSystemPrompt,
		Messages:     []chatMessage{{Role: "user", Content: userContent}},
		OutputFormat: &outputFormat{Type: "json_schema", Schema: topicSummarySchema},
	}

	resp, err := c.post(ctx, req, false)
	if err != nil {
		return models.TopicSummary{}, err
	}
	defer resp.Body.Close()

	var mr messageResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return models.TopicSummary{}, &UpstreamError{Message: fmt.Sprintf("decode response: %v", err)}
	}
	var body string
	for _, block := range mr.Content {
		if block.Type == "text" {
			body += block.Text
		}
	}
	var summary models.TopicSummary
	if err := json.Unmarshal([]byte(strings.TrimSpace(body)), &summary); err != nil {
		return models.TopicSummary{}, &UpstreamError{Message: fmt.Sprintf("structured output did not match schema: %v", err)}
	}
	if summary.Overview == "" {
		return models.TopicSummary{}, &UpstreamError{Message: "structured output missing overview"}
	}

	// Reconcile: the streamed source list is authoritative when the model
	// returns fewer.
	if len(summary.Sources) == 0 && len(sources) > 0 {
		n := len(sources)
		if n > c.cfg.MaxSources {
			n = c.cfg.MaxSources
		}
		summary.Sources = append([]models.SourceRef(nil), sources[:n]...)
	}
	summary.Topic = topic
	return summary, nil
}

func (c *AnthropicClient) post(ctx context.Context, body messageRequest, stream bool) (*http.Response, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/messages", bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	if len(body.Tools) > 0 {
		req.Header.Set("anthropic-beta", webSearchBeta)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UpstreamError{Message: err.Error(), Transient: true}
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Error.Message != "" {
			msg = ae.Error.Message
		}
		return nil, &UpstreamError{Status: resp.StatusCode, Message: msg, Transient: transientStatus(resp.StatusCode)}
	}
	return resp, nil
}
