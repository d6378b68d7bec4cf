package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/topicradar/internal/search"
)

// parseLens validates the optional lens query parameter. An empty value means
// auto-detect.
func parseLens(c echo.Context) (search.Intent, error) {
	raw := strings.TrimSpace(c.QueryParam("lens"))
	if raw == "" {
		return "", nil
	}
	intent, err := search.ParseIntent(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return intent, nil
}

// streamResearch relays a research run as Server-Sent Events, one JSON frame
// per event. The stream always terminates with a done frame unless the client
// disconnects first.
func (s *Server) streamResearch(c echo.Context) error {
	topic := strings.TrimSpace(c.QueryParam("topic"))
	if topic == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "topic is required")
	}
	lens, err := parseLens(c)
	if err != nil {
		return err
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}
	resp.WriteHeader(http.StatusOK)

	ctx := c.Request().Context()
	for ev := range s.researcher.Run(ctx, topic, lens) {
		payload, err := json.Marshal(ev)
		if err != nil {
			s.logger.Printf("marshal stream event: %v", err)
			continue
		}
		if _, err := fmt.Fprintf(resp, "data: %s\n\n", payload); err != nil {
			// Client went away; the run sees the context cancellation.
			return nil
		}
		flusher.Flush()
	}
	return nil
}

// searchAggregated runs the one-shot variant and returns the full aggregated
// report as JSON.
func (s *Server) searchAggregated(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	lens, err := parseLens(c)
	if err != nil {
		return err
	}
	report, err := s.researcher.Search(c.Request().Context(), query, lens)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, "search failed, please try again")
	}
	return c.JSON(http.StatusOK, report)
}
