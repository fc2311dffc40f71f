package handler

import (
	"net/http"
	"strconv"

	"github.com/LXKing/Kahla/internal/service"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	svc service.UserService
}

func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

type RegisterDeviceBody struct {
	Name      string `json:"name"`
	PushToken string `json:"pushToken"`
}

type EmailNotificationBody struct {
	Enabled bool `json:"enabled"`
}

func (h *UserHandler) Me(c echo.Context) error {
	uid := callerID(c)
	u, err := h.svc.Me(c.Request().Context(), uid)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, u)
}

// InitChannel hands the client a fresh real-time channel id to listen on.
func (h *UserHandler) InitChannel(c echo.Context) error {
	uid := callerID(c)
	channel, err := h.svc.InitChannel(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to init channel"))
	}
	return c.JSON(http.StatusOK, map[string]int64{"channelId": channel})
}

func (h *UserHandler) DropChannel(c echo.Context) error {
	uid := callerID(c)
	if err := h.svc.DropChannel(c.Request().Context(), uid); err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", "failed to drop channel"))
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *UserHandler) RegisterDevice(c echo.Context) error {
	uid := callerID(c)
	var body RegisterDeviceBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	d, err := h.svc.RegisterDevice(c.Request().Context(), uid, body.Name, body.PushToken)
	if err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *UserHandler) RemoveDevice(c echo.Context) error {
	uid := callerID(c)
	deviceID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid device id"))
	}
	if err := h.svc.RemoveDevice(c.Request().Context(), uid, deviceID); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *UserHandler) SetEmailNotification(c echo.Context) error {
	uid := callerID(c)
	var body EmailNotificationBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	if err := h.svc.SetEmailNotification(c.Request().Context(), uid, body.Enabled); err != nil {
		return svcError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
