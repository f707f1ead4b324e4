// data.go - Sensor ingest and location query/management handlers

package handlers

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"envsense-backend/auditlog"
	"envsense-backend/metrics"
	"envsense-backend/middleware"
	"envsense-backend/mqtt"
	"envsense-backend/readings"
	"envsense-backend/store"

	"github.com/gin-gonic/gin"
)

const maxIngestBody = 1 << 20

// AddData ingests one reading, taken from the :params path segment when it is
// present and from the request body otherwise. A new name creates the
// location (201); a known name appends to its sequences (200).
func (h *Handler) AddData(c *gin.Context) {
	// STEP 1: Capture the raw request and log it before anything can fail
	body := c.Request.Body
	if body == nil { // Params-only requests may arrive without a body
		body = http.NoBody
	}
	raw, readErr := io.ReadAll(io.LimitReader(body, maxIngestBody))
	h.Audit.Record(auditlog.Entry{
		Method: c.Request.Method,
		URL:    c.Request.URL.RequestURI(),
		Body:   auditlog.Body(raw),
		IP:     c.ClientIP(),
	})
	if readErr != nil {
		metrics.IngestRequestsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed request body"}) // Unreadable or oversized body
		return
	}

	// STEP 2: Normalise the input; invalid sensor values are dropped per field
	reading, err := parseReading(c, raw)
	if err != nil {
		metrics.IngestRequestsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": ingestMessage(err)})
		return
	}

	// STEP 3: Create-or-append in the store
	loc, created, err := h.Locations.Ingest(c.Request.Context(), reading.Name, reading.Values)
	if err != nil {
		var ve *store.ValidationError
		switch {
		case errors.Is(err, store.ErrDuplicate):
			metrics.IngestRequestsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "Location already exists"})
		case errors.Is(err, store.ErrNoReadings):
			metrics.IngestRequestsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": ingestMessage(readings.ErrNoData)})
		case errors.As(err, &ve):
			metrics.IngestRequestsTotal.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": ve.Msg})
		default:
			metrics.IngestRequestsTotal.WithLabelValues("failed").Inc() // Store failure, answered with 500
			h.serverError(c, "error", err)
		}
		return
	}

	// STEP 4: Notify and respond
	status, result := http.StatusOK, "appended"
	if created {
		status, result = http.StatusCreated, "created"
	}
	metrics.IngestRequestsTotal.WithLabelValues(result).Inc()
	if h.Events != nil { // No broker configured
		h.Events.Publish(mqtt.Event{Location: loc.Name, Readings: reading.Values, Created: created, At: time.Now().UTC()})
	}
	c.JSON(status, loc.Readings())
}

func parseReading(c *gin.Context, raw []byte) (readings.Reading, error) {
	if c.Param("params") != "" {
		return readings.FromParams(paramsSegment(c))
	}
	if strings.HasPrefix(c.ContentType(), "application/x-www-form-urlencoded") {
		return readings.FromParams(string(raw))
	}
	return readings.FromJSON(raw)
}

// paramsSegment returns the last path segment decoded exactly once, so an
// encoded "/" stays inside the name and "%25" reaches the parser as "%".
func paramsSegment(c *gin.Context) string {
	escaped := c.Request.URL.EscapedPath()
	segment := escaped[strings.LastIndex(escaped, "/")+1:]
	if decoded, err := url.PathUnescape(segment); err == nil {
		return decoded
	}
	return c.Param("params") // Fall back to gin's own decoding
}

func ingestMessage(err error) string {
	switch {
	case errors.Is(err, readings.ErrNameRequired):
		return "Name is required"
	case errors.Is(err, readings.ErrNoData):
		return "No valid data provided"
	default:
		return "Malformed request body"
	}
}

// GetLocations lists every location, newest first.
func (h *Handler) GetLocations(c *gin.Context) {
	locs, err := h.Locations.List(c.Request.Context()) // Newest first
	if err != nil {
		h.serverError(c, "message", err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

func (h *Handler) GetLocation(c *gin.Context) {
	loc, err := h.Locations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Location not found")
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *Handler) DeleteLocation(c *gin.Context) {
	if err := h.Locations.DeleteByID(c.Request.Context(), c.Param("id")); err != nil {
		h.storeError(c, err, "Location not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location deleted"}) // Confirm deletion
}

type DescriptionInput struct {
	Name        string `json:"name" binding:"required"` // Location to update
	Description string `json:"description"`             // Replaces the current text
}

func (h *Handler) UpdateDescription(c *gin.Context) {
	var input DescriptionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindError(c, err)
		return
	}
	loc, err := h.Locations.UpdateDescription(c.Request.Context(), input.Name, input.Description)
	if err != nil {
		h.storeError(c, err, "Location not found")
		return
	}
	c.JSON(http.StatusOK, loc)
}

type RateInput struct {
	Name  string `json:"name" binding:"required"` // Location to rate
	Stars int    `json:"stars"`                   // 1 to 5
}

// StarsRate records the caller's 1-5 rating; each user may rate a location once.
func (h *Handler) StarsRate(c *gin.Context) {
	var input RateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		metrics.RatingsTotal.WithLabelValues("rejected").Inc()
		bindError(c, err)
		return
	}
	if input.Stars < 1 || input.Stars > 5 { // Checked before any store access
		metrics.RatingsTotal.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid stars rate"})
		return
	}
	user, ok := middleware.CurrentUser(c) // Set by AuthMiddleware
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authorized"})
		return
	}

	loc, err := h.Locations.Rate(c.Request.Context(), input.Name, user.ID, input.Stars)
	if err != nil {
		metrics.RatingsTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, store.ErrAlreadyRated) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "User has already rated"})
			return
		}
		h.serverError(c, "message", err)
		return
	}
	metrics.RatingsTotal.WithLabelValues("accepted").Inc()
	c.JSON(http.StatusOK, loc)
}
