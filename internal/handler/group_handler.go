package handler

import (
	"net/http"

	"github.com/LXKing/Kahla/internal/service"
	"github.com/labstack/echo/v4"
)

type GroupHandler struct {
	svc service.GroupService
}

func NewGroupHandler(svc service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

type CreateGroupBody struct {
	Name string `json:"name"`
}

type SetMutedBody struct {
	Muted bool `json:"muted"`
}

func (h *GroupHandler) Create(c echo.Context) error {
	uid := callerID(c)
	var body CreateGroupBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	cv, err := h.svc.CreateGroup(c.Request().Context(), uid, body.Name)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, conversationResponse(cv, uid, 0))
}

func (h *GroupHandler) Join(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.svc.Join(c.Request().Context(), id, uid); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GroupHandler) Leave(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.svc.Leave(c.Request().Context(), id, uid); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GroupHandler) Dissolve(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	if err := h.svc.Dissolve(c.Request().Context(), id, uid); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *GroupHandler) SetMuted(c echo.Context) error {
	uid := callerID(c)
	id, err := convID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid conversation id"))
	}
	var body SetMutedBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.svc.SetMuted(c.Request().Context(), id, uid, body.Muted); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
