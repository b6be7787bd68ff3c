package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shopsmart/backend/internal/domain"
	"github.com/shopsmart/backend/internal/usecase"
	"github.com/shopsmart/backend/pkg/logging"
)

const (
	serviceName    = "shopsmart-backend"
	serviceVersion = "1.0.0"
)

// SessionRegistry stores live search sessions by id
type SessionRegistry interface {
	Create(session *usecase.SearchSession) string
	Get(id string) (*usecase.SearchSession, error)
	Delete(id string) error
}

// SessionFactory creates a new idle search session
type SessionFactory func() *usecase.SearchSession

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions   SessionRegistry
	newSession SessionFactory
	exporter   *usecase.ExportRequester
	sites      []domain.Site
	log        *logging.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions SessionRegistry, newSession SessionFactory, exporter *usecase.ExportRequester, sites []domain.Site, log *logging.Logger) *Handler {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handler{
		sessions:   sessions,
		newSession: newSession,
		exporter:   exporter,
		sites:      sites,
		log:        log.With("component", "handler"),
	}
}

type sessionResponse struct {
	ID string `json:"id"`
	domain.SessionSnapshot
}

type searchRequest struct {
	Query string `json:"query"`
	// Websites lists site ids; omitted means every configured site
	Websites []string `json:"websites"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// ListSites returns the selectable sites
func (h *Handler) ListSites(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sites": h.sites})
}

// CreateSession starts a new idle session
func (h *Handler) CreateSession(c *gin.Context) {
	session := h.newSession()
	id := h.sessions.Create(session)
	h.log.Info("session created", "id", id)

	c.JSON(http.StatusCreated, gin.H{
		"id":    id,
		"state": session.State(),
	})
}

// GetSession returns a session's lifecycle snapshot
func (h *Handler) GetSession(c *gin.Context) {
	id, session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, SessionSnapshot: session.Snapshot()})
}

// DeleteSession tears a session down
func (h *Handler) DeleteSession(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		h.respondError(c, err)
		return
	}
	h.log.Info("session deleted", "id", id)
	c.Status(http.StatusNoContent)
}

// OpenSearch moves a session into AwaitingSubmission
func (h *Handler) OpenSearch(c *gin.Context) {
	id, session, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := session.OpenSearch(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, SessionSnapshot: session.Snapshot()})
}

// StartSearch submits a comparison job. Polling continues in the background.
func (h *Handler) StartSearch(c *gin.Context) {
	id, session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	websites := req.Websites
	if websites == nil {
		websites = session.SiteIDs()
	}

	if err := session.Submit(c.Request.Context(), req.Query, websites); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, sessionResponse{ID: id, SessionSnapshot: session.Snapshot()})
}

// CancelSearch abandons the active job
func (h *Handler) CancelSearch(c *gin.Context) {
	id, session, ok := h.lookup(c)
	if !ok {
		return
	}
	if err := session.Cancel(); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse{ID: id, SessionSnapshot: session.Snapshot()})
}

// UpdateCriteria stores the filter and sort selection
func (h *Handler) UpdateCriteria(c *gin.Context) {
	_, session, ok := h.lookup(c)
	if !ok {
		return
	}

	var criteria domain.SearchCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if err := session.SetCriteria(criteria); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session.Criteria())
}

// GetView returns the derived view. Query parameters override the stored criteria.
func (h *Handler) GetView(c *gin.Context) {
	_, session, ok := h.lookup(c)
	if !ok {
		return
	}

	criteria := session.Criteria()
	if q, ok := c.GetQuery("q"); ok {
		criteria.SearchTerm = q
	}
	if source, ok := c.GetQuery("source"); ok {
		criteria.SourceFilter = source
	}
	if category, ok := c.GetQuery("category"); ok {
		criteria.CategoryFilter = category
	}
	if sort, ok := c.GetQuery("sort"); ok {
		criteria.SortKey = domain.SortKey(sort)
	}

	criteria = criteria.Normalize()
	if !criteria.SortKey.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown sort key: " + string(criteria.SortKey)})
		return
	}

	c.JSON(http.StatusOK, usecase.Derive(session.Catalog(), criteria))
}

// Export asks the job service to export its latest results
func (h *Handler) Export(c *gin.Context) {
	result, err := h.exporter.Export(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) lookup(c *gin.Context) (string, *usecase.SearchSession, bool) {
	id := c.Param("id")
	session, err := h.sessions.Get(id)
	if err != nil {
		h.respondError(c, err)
		return id, nil, false
	}
	return id, session, true
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.Request.URL.Path, "err", err)
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNoResults):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrJobActive),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrCancelled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrSessionClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrJobSubmit), errors.Is(err, domain.ErrExport):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
