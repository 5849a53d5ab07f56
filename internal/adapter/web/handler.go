// Package web serves the repair form and its JSON API over gin.
package web

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"repairguide/internal/platform/ratelimit"
	"repairguide/internal/repair"
	"repairguide/internal/shared"
)

//go:embed templates/*.html
var templateFS embed.FS

// User-facing messages.
const (
	MsgMissingFields = repair.MsgMissingFields
	MsgNoContent     = repair.MsgNoContent
	MsgFailed        = repair.MsgFailed
	MsgBusy          = repair.MsgBusy
	MsgTooSoon       = repair.MsgTooSoon
)

// Instructor answers repair questions.
type Instructor interface {
	Instructions(ctx context.Context, v repair.Vehicle) (repair.Guide, error)
}

// Handler holds the HTTP endpoints.
type Handler struct {
	svc   Instructor
	log   *slog.Logger
	guard *ratelimit.Limiter
}

// HandlerOption configures Handler.
type HandlerOption func(*Handler)

// WithGuard admits one request per client IP at a time, spaced by the
// limiter's interval. Only requests that pass validation take a slot.
func WithGuard(l *ratelimit.Limiter) HandlerOption {
	return func(h *Handler) { h.guard = l }
}

// NewHandler creates Handler.
func NewHandler(svc Instructor, log *slog.Logger, opts ...HandlerOption) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{svc: svc, log: log}
	for _, o := range opts {
		o(h)
	}
	return h
}

type page struct {
	Vehicle      repair.Vehicle
	Instructions string
	Sources      []repair.Source
	Error        string
}

type apiError struct {
	Error string `json:"error"`
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

// Index renders the empty form.
func (h *Handler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", page{})
}

// Submit handles the form post and re-renders the page with the outcome.
func (h *Handler) Submit(c *gin.Context) {
	var v repair.Vehicle
	if err := c.ShouldBind(&v); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", page{Vehicle: v, Error: MsgMissingFields})
		return
	}
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		c.HTML(http.StatusBadRequest, "index.html", page{Vehicle: v, Error: MsgMissingFields})
		return
	}
	release, err := h.admit(c)
	if err != nil {
		c.HTML(http.StatusTooManyRequests, "index.html", page{Vehicle: v, Error: repair.GuardMessage(err)})
		return
	}
	defer release()

	g, err := h.svc.Instructions(c.Request.Context(), v)
	if err != nil {
		status, msg := describe(err)
		c.HTML(status, "index.html", page{Vehicle: v, Error: msg})
		return
	}
	c.HTML(http.StatusOK, "index.html", page{
		Vehicle:      v,
		Instructions: repair.FormatInstructions(g.Text),
		Sources:      g.Sources,
	})
}

// API handles POST /api/instructions.
func (h *Handler) API(c *gin.Context) {
	var v repair.Vehicle
	if err := c.ShouldBindJSON(&v); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: "invalid JSON body"})
		return
	}
	v = v.Normalize()
	if err := v.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: MsgMissingFields})
		return
	}
	release, err := h.admit(c)
	if err != nil {
		c.JSON(http.StatusTooManyRequests, apiError{Error: repair.GuardMessage(err)})
		return
	}
	defer release()

	g, err := h.svc.Instructions(c.Request.Context(), v)
	if err != nil {
		status, msg := describe(err)
		c.JSON(status, apiError{Error: msg})
		return
	}
	c.JSON(http.StatusOK, g)
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// admit takes the client's guard slot. The key is gin's ClientIP, which only
// honours X-Forwarded-For from the router's trusted proxies.
func (h *Handler) admit(c *gin.Context) (func(), error) {
	if h.guard == nil {
		return func() {}, nil
	}
	return h.guard.Acquire(c.ClientIP())
}

// describe maps an error onto a status code and the message shown to the user.
func describe(err error) (int, string) {
	msg := repair.UserMessage(err)
	switch shared.KindOf(err) {
	case shared.KindValidation:
		return http.StatusBadRequest, msg
	case shared.KindNoContent:
		return http.StatusNotFound, msg
	case shared.KindCanceled:
		return 499, msg
	case shared.KindTimeout:
		return http.StatusGatewayTimeout, msg
	default:
		return http.StatusBadGateway, msg
	}
}
