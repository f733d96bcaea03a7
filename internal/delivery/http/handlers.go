package http

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ilindan-dev/sms-sender-bot/internal/config"
	"github.com/ilindan-dev/sms-sender-bot/internal/domain/model"
	repo "github.com/ilindan-dev/sms-sender-bot/internal/domain/repository"
	"github.com/rs/zerolog"
	"net/http"
	"unicode/utf8"
)

// MessageService is the part of the service layer the API exposes.
type MessageService interface {
	SendOne(ctx context.Context, chatID int64, destination, message string) (model.SendResult, uuid.UUID)
	GetRecord(ctx context.Context, id uuid.UUID) (*model.SendRecord, error)
	ListJob(ctx context.Context, jobID uuid.UUID) ([]*model.SendRecord, error)
}

type Handlers struct {
	service   MessageService
	maxLength int
	logger    zerolog.Logger
}

func NewHandlers(cfg *config.Config, service MessageService, logger *zerolog.Logger) *Handlers {
	return &Handlers{
		service:   service,
		maxLength: cfg.SMS.MaxLength,
		logger:    logger.With().Str("layer", "http_handler").Logger(),
	}
}

// RegisterRoutes sets up the routing for the messages API.
func (h *Handlers) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api/v1")
	{
		api.POST("/messages", h.SendMessage)
		api.GET("/messages/:id", h.GetMessageByID)
		api.GET("/jobs/:id/messages", h.ListJobMessages)
	}
}

// SendMessage sends one SMS synchronously. A failed send is answered with 422 and the result body.
func (h *Handlers) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn().Err(err).Msg("invalid request body")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if h.maxLength > 0 && utf8.RuneCountInString(req.Message) > h.maxLength {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("message exceeds %d characters", h.maxLength)})
		return
	}

	res, id := h.service.SendOne(c.Request.Context(), 0, req.Destination, req.Message)

	resp := SendResultResponse{
		Success:  res.Success,
		Detail:   res.Detail,
		Kind:     string(res.Kind),
		Attempts: res.Attempts,
	}
	if id != uuid.Nil {
		resp.RecordID = &id
	}
	if !res.Success {
		c.JSON(http.StatusUnprocessableEntity, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetMessageByID returns a stored send record.
func (h *Handlers) GetMessageByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid message ID format"})
		return
	}

	rec, err := h.service.GetRecord(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error().Err(err).Stringer("id", id).Msg("failed to get send record by id")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to retrieve message"})
		return
	}

	c.JSON(http.StatusOK, toRecordResponse(rec))
}

// ListJobMessages returns the records of a bulk job in send order.
func (h *Handlers) ListJobMessages(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid job ID format"})
		return
	}

	recs, err := h.service.ListJob(c.Request.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Stringer("job_id", id).Msg("failed to list job records")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list job messages"})
		return
	}

	out := make([]SendRecordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecordResponse(r))
	}
	c.JSON(http.StatusOK, out)
}

func toRecordResponse(r *model.SendRecord) SendRecordResponse {
	return SendRecordResponse{
		ID:          r.ID,
		JobID:       r.JobID,
		ChatID:      r.ChatID,
		Destination: r.Destination,
		Success:     r.Success,
		Detail:      r.Detail,
		Kind:        string(r.Kind),
		Attempts:    r.Attempts,
		CreatedAt:   r.CreatedAt,
	}
}
