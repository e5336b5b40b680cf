// Package api exposes the administrative actions over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/domain"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/jwt"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/jobs"
)

// AdminService is the administrative gateway behind the handlers.
type AdminService interface {
	Overview(ctx context.Context) domain.Overview
	ProvisionAll(ctx context.Context) (*admin.Result, error)
	DeleteIndex(ctx context.Context, index string) (*admin.Result, error)
	DeleteAllIndices(ctx context.Context) (*admin.Result, error)
	ChangeTokenizer(ctx context.Context, index, tokenizer string) (*admin.Result, error)
	RunIndexJob(ctx context.Context) (*admin.Result, error)
	History(ctx context.Context, limit int) ([]domain.Operation, error)
}

// Handler handles admin API requests.
type Handler struct {
	svc    AdminService
	logger infralogger.Logger
}

// NewHandler creates a Handler.
func NewHandler(svc AdminService, log infralogger.Logger) *Handler {
	if log == nil {
		log = infralogger.NewNop()
	}
	return &Handler{svc: svc, logger: log}
}

// TokenizerRequest is the body of POST /indices/:index_name/tokenizer.
type TokenizerRequest struct {
	Tokenizer string `binding:"required" json:"tokenizer"`
}

// actionContext carries the caller identity into the audit history.
func actionContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if claims, ok := jwt.GetClaims(c); ok {
		ctx = admin.WithActor(ctx, claims.Subject)
	}
	return ctx
}

// GetOverview handles GET /api/v1/admin/overview
func (h *Handler) GetOverview(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Overview(c.Request.Context()))
}

// ProvisionIndices handles POST /api/v1/admin/indices/provision
func (h *Handler) ProvisionIndices(c *gin.Context) {
	res, err := h.svc.ProvisionAll(actionContext(c))
	h.respond(c, res, err)
}

// DeleteIndex handles DELETE /api/v1/admin/indices/:index_name
func (h *Handler) DeleteIndex(c *gin.Context) {
	res, err := h.svc.DeleteIndex(actionContext(c), c.Param("index_name"))
	h.respond(c, res, err)
}

// DeleteAllIndices handles DELETE /api/v1/admin/indices
func (h *Handler) DeleteAllIndices(c *gin.Context) {
	res, err := h.svc.DeleteAllIndices(actionContext(c))
	h.respond(c, res, err)
}

// ChangeTokenizer handles POST /api/v1/admin/indices/:index_name/tokenizer
func (h *Handler) ChangeTokenizer(c *gin.Context) {
	var req TokenizerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.svc.ChangeTokenizer(actionContext(c), c.Param("index_name"), req.Tokenizer)
	h.respond(c, res, err)
}

// RunIndexJob handles POST /api/v1/admin/jobs/index/run
func (h *Handler) RunIndexJob(c *gin.Context) {
	res, err := h.svc.RunIndexJob(actionContext(c))
	if err == nil {
		c.JSON(http.StatusAccepted, res)
		return
	}
	h.respond(c, res, err)
}

// GetHistory handles GET /api/v1/admin/history
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	ops, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		infralogger.FromContext(c.Request.Context(), h.logger).Error("Failed to list history", infralogger.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"operations": ops, "count": len(ops)})
}

func (h *Handler) respond(c *gin.Context, res *admin.Result, err error) {
	if err == nil {
		c.JSON(http.StatusOK, res)
		return
	}

	code := statusFor(res, err)
	if code >= http.StatusInternalServerError {
		infralogger.FromContext(c.Request.Context(), h.logger).Error("Admin request failed",
			infralogger.Int("status", code),
			infralogger.Error(err),
		)
	}
	c.JSON(code, gin.H{"error": err.Error(), "result": res})
}

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(res *admin.Result, err error) int {
	var (
		closed      *domain.IndexLeftClosedError
		unsupported *domain.UnsupportedClusterVersionError
		timeout     *domain.HealthTimeoutError
	)

	switch {
	case res != nil && res.Status == domain.OperationPartial:
		return http.StatusMultiStatus
	case errors.Is(err, admin.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.As(err, &closed):
		return http.StatusConflict
	case errors.Is(err, jobs.ErrJobRunning):
		return http.StatusConflict
	case errors.Is(err, domain.ErrIndexNotFound), errors.Is(err, jobs.ErrJobNotFound):
		return http.StatusNotFound
	case errors.As(err, &unsupported):
		return http.StatusPreconditionFailed
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
