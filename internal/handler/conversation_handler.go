package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/LXKing/Kahla/internal/model"
	"github.com/LXKing/Kahla/internal/service"
	"github.com/labstack/echo/v4"
)

type ConversationHandler struct {
	svc    service.ConversationService
	unread service.UnreadService
	logger *slog.Logger
}

func NewConversationHandler(svc service.ConversationService, unread service.UnreadService) *ConversationHandler {
	return &ConversationHandler{svc: svc, unread: unread, logger: slog.Default()}
}

type SendMessageRequest struct {
	MessageID  string    `json:"messageId"`
	Content    string    `json:"content"`
	At         []string  `json:"at"`
	RecordTime time.Time `json:"recordTime"`
}

type UpdateRetentionRequest struct {
	NewLifeTime int `json:"newLifeTime"`
}

type ConversationResponse struct {
	ConversationID uint64 `json:"conversationId"`
	Discriminator  string `json:"discriminator"`
	DisplayName    string `json:"displayName"`
	AESKey         string `json:"aesKey"`
	MaxLiveSeconds int    `json:"maxLiveSeconds"`
	OwnerID        string `json:"ownerId,omitempty"`
	Unread         int64  `json:"unread"`
}

// svcError maps the service taxonomy onto HTTP codes.
func svcError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", err.Error()))
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, NewErrorResponse("unauthorized", err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_input", err.Error()))
	default:
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "unexpected error"))
	}
}

func callerID(c echo.Context) string {
	uid, _ := c.Get("uid").(string)
	return uid
}

func convID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

func (h *ConversationHandler) List(c echo.Context) error {
	uid := callerID(c)
	if uid == "" {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
	}
	convs, err := h.svc.ListByUser(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to fetch conversations"))
	}
	resp := make([]ConversationResponse, 0, len(convs))
	for i := range convs {
		cv := &convs[i]
		// Unread counts render best-effort: a failed count shows 0.
		unread, err := h.unread.UnreadCount(c.Request().Context(), cv, uid)
		if err != nil {
			h.logger.Warn("unread count failed", "conversationId", cv.ID, "userId", uid, "error", err)
		}
		resp = append(resp, conversationResponse(cv, uid, unread))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *ConversationHandler) Detail(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	cv, err := h.svc.Detail(c.Request().Context(), id, uid)
	if err != nil {
		return svcError(c, err)
	}
	unread, err := h.unread.UnreadCount(c.Request().Context(), cv, uid)
	if err != nil {
		h.logger.Warn("unread count failed", "conversationId", cv.ID, "userId", uid, "error", err)
	}
	return c.JSON(http.StatusOK, conversationResponse(cv, uid, unread))
}

func (h *ConversationHandler) GetMessages(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	take, _ := strconv.Atoi(c.QueryParam("take"))
	skipFrom := c.QueryParam("skipFrom")
	msgs, err := h.svc.GetMessages(c.Request().Context(), id, uid, take, skipFrom)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, msgs)
}

func (h *ConversationHandler) SendMessage(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var req SendMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	msg, err := h.svc.SendMessage(c.Request().Context(), id, uid, req.Content, req.MessageID, req.At, req.RecordTime)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *ConversationHandler) UpdateRetention(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var req UpdateRetentionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.svc.UpdateRetention(c.Request().Context(), id, uid, req.NewLifeTime); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConversationHandler) MarkRead(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.unread.MarkRead(c.Request().Context(), id, uid, time.Now().UTC()); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *ConversationHandler) FileHistory(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	folders, err := h.svc.FileHistory(c.Request().Context(), id, uid)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, folders)
}

func conversationResponse(cv *model.Conversation, uid string, unread int64) ConversationResponse {
	return ConversationResponse{
		ConversationID: cv.ID,
		Discriminator:  cv.Discriminator,
		DisplayName:    cv.DisplayNameFor(uid),
		AESKey:         cv.AESKey,
		MaxLiveSeconds: cv.MaxLiveSeconds,
		OwnerID:        cv.OwnerID,
		Unread:         unread,
	}
}
