package handler

import (
	"net/http"
	"strconv"

	"github.com/LXKing/Kahla/internal/service"
	"github.com/labstack/echo/v4"
)

type FriendshipHandler struct {
	svc service.FriendshipService
}

func NewFriendshipHandler(svc service.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{svc: svc}
}

type CreateRequestBody struct {
	TargetID string `json:"targetId"`
}

type CompleteRequestBody struct {
	Accept bool `json:"accept"`
}

func (h *FriendshipHandler) CreateRequest(c echo.Context) error {
	uid := callerID(c)
	var body CreateRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	req, err := h.svc.CreateRequest(c.Request().Context(), uid, body.TargetID)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, req)
}

func (h *FriendshipHandler) CompleteRequest(c echo.Context) error {
	uid := callerID(c)
	reqID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid request id"))
	}
	var body CompleteRequestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	cv, err := h.svc.CompleteRequest(c.Request().Context(), uid, reqID, body.Accept)
	if err != nil {
		return svcError(c, err)
	}
	if cv == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "declined"})
	}
	return c.JSON(http.StatusOK, conversationResponse(cv, uid, 0))
}

func (h *FriendshipHandler) RemoveFriend(c echo.Context) error {
	uid := callerID(c)
	friendID := c.Param("id")
	if friendID == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "missing friend id"))
	}
	if err := h.svc.RemoveFriend(c.Request().Context(), uid, friendID); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
