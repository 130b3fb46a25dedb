package notification

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/marketplace-api/internal/model"
	"github.com/jwalitptl/marketplace-api/internal/repository"
	"github.com/jwalitptl/marketplace-api/internal/service/notification"
	apperrors "github.com/jwalitptl/marketplace-api/pkg/errors"
	"github.com/jwalitptl/marketplace-api/pkg/httputil"
	"github.com/jwalitptl/marketplace-api/pkg/logger"
	"github.com/jwalitptl/marketplace-api/pkg/validator"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type SendRequest struct {
	UserID    string                 `json:"user_id" validate:"required"`
	Type      model.NotificationType `json:"type" validate:"required"`
	Data      model.TemplateData     `json:"data"`
	Vertical  string                 `json:"vertical"`
	UserEmail string                 `json:"user_email" validate:"omitempty,email"`
	UserPhone string                 `json:"user_phone"`
}

type BatchRequest struct {
	UserIDs  []string               `json:"user_ids" validate:"required,min=1,max=1000,dive,required"`
	Type     model.NotificationType `json:"type" validate:"required"`
	Data     model.TemplateData     `json:"data"`
	Vertical string                 `json:"vertical"`
}

// Notifier is the subset of the dispatcher the handler needs.
type Notifier interface {
	Send(ctx context.Context, userID string, t model.NotificationType, data model.TemplateData, opts notification.Options) *model.NotificationResult
	SendBatch(ctx context.Context, userIDs []string, t model.NotificationType, data model.TemplateData, opts notification.Options) []*model.NotificationResult
}

type Handler struct {
	notifier  Notifier
	repo      repository.NotificationRepository
	validator validator.Validator
	logger    *logger.Logger
}

func NewHandler(notifier Notifier, repo repository.NotificationRepository, v validator.Validator, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{
		notifier:  notifier,
		repo:      repo,
		validator: v,
		logger:    log,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.POST("", h.Send)
		notifications.POST("/batch", h.SendBatch)
		notifications.GET("/types", h.ListTypes)
	}
	r.GET("/users/:id/notifications", h.ListForUser)
}

func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), nil))
		return
	}

	// Unknown types are passed through; the dispatcher reports them per channel.
	result := h.notifier.Send(c.Request.Context(), req.UserID, req.Type, req.Data, notification.Options{
		Vertical:  req.Vertical,
		UserEmail: req.UserEmail,
		UserPhone: req.UserPhone,
	})

	httputil.RespondWithSuccess(c, result)
}

func (h *Handler) SendBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("invalid request body", err))
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest(err.Error(), nil))
		return
	}

	results := h.notifier.SendBatch(c.Request.Context(), req.UserIDs, req.Type, req.Data, notification.Options{
		Vertical: req.Vertical,
	})

	logger.FromContext(c.Request.Context(), h.logger).Info("batch notification sent",
		"type", string(req.Type),
		"recipients", len(req.UserIDs),
	)
	httputil.RespondWithSuccess(c, results)
}

func (h *Handler) ListTypes(c *gin.Context) {
	httputil.RespondWithSuccess(c, notification.Describe())
}

func (h *Handler) ListForUser(c *gin.Context) {
	userID := c.Param("id")

	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.RespondWithError(c, apperrors.BadRequest("limit must be a positive integer", err))
			return
		}
		if n > maxListLimit {
			n = maxListLimit
		}
		limit = n
	}

	rows, err := h.repo.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		logger.FromContext(c.Request.Context(), h.logger).Error(err, "failed to list notifications", "user_id", userID)
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}
	if rows == nil {
		rows = []*model.Notification{}
	}

	httputil.RespondWithSuccess(c, rows)
}
