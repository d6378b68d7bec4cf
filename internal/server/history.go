package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/topicradar/models"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

func (s *Server) listHistory(c echo.Context) error {
	limit := defaultHistoryLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	offset := 0
	if raw := c.QueryParam("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "offset must be a non-negative integer")
		}
		offset = n
	}

	entries, err := s.history.List(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []models.HistoryListItem{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"entries": entries,
		"limit":   limit,
		"offset":  offset,
	})
}

func historyID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "id must be a positive integer")
	}
	return id, nil
}

func (s *Server) getHistory(c echo.Context) error {
	id, err := historyID(c)
	if err != nil {
		return err
	}
	entry, err := s.history.GetByID(c.Request().Context(), id)
	if errors.Is(err, models.ErrEntryNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "history entry not found")
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, entry)
}

func (s *Server) deleteHistory(c echo.Context) error {
	id, err := historyID(c)
	if err != nil {
		return err
	}
	err = s.history.Delete(c.Request().Context(), id)
	if errors.Is(err, models.ErrEntryNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "history entry not found")
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
