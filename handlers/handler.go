// handler.go - Shared dependencies and error responses for HTTP handlers

package handlers // Declares the package name

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"strings"

	"envsense-backend/auditlog"
	"envsense-backend/config"
	"envsense-backend/mqtt"
	"envsense-backend/store"
	"envsense-backend/token"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
)

// EventPublisher receives an event after every accepted ingest.
type EventPublisher interface {
	Publish(ev mqtt.Event)
}

// Handler carries everything the routes need; nothing is read from globals.
type Handler struct {
	Cfg       *config.Config
	Locations *store.LocationStore
	Users     *store.UserStore
	Tokens    *token.Issuer
	Audit     *auditlog.Logger // nil disables the request log
	Events    EventPublisher   // nil disables update events
}

func New(cfg *config.Config, st *store.Store, audit *auditlog.Logger, events EventPublisher) *Handler {
	return &Handler{
		Cfg:       cfg,
		Locations: st.Locations(),
		Users:     st.Users(),
		Tokens:    token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Audit:     audit,
		Events:    events,
	}
}

// serverError answers 500; the stack is attached outside production only.
func (h *Handler) serverError(c *gin.Context, key string, err error) {
	log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")

	body := gin.H{key: "Server error"}
	if !h.Cfg.IsProduction() {
		body["stack"] = string(debug.Stack())
	}
	c.JSON(http.StatusInternalServerError, body)
}

// bindError answers 400 for a request body that failed to bind.
func bindError(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) {
		msgs := make([]string, 0, len(fields))
		for _, fe := range fields {
			msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": strings.Join(msgs, "; ")})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}

// storeError maps store failures onto client errors, falling back to 500.
func (h *Handler) storeError(c *gin.Context, err error, notFound string) {
	var ve *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": notFound})
	case errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Already exists"})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"message": ve.Msg})
	default:
		h.serverError(c, "message", err)
	}
}
