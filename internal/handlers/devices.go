package handlers

import (
	"errors"
	"net/http"

	"terneo_bridge/internal/service"
	"terneo_bridge/internal/terneo"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK           = "ok"
	statusRegistered   = "registered"
	statusUnregistered = "unregistered"

	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusFor maps domain errors onto HTTP codes: validation failures are the
// caller's fault, device failures are the gateway's.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, terneo.ErrUnreachable),
		errors.Is(err, terneo.ErrWriteFailed),
		errors.Is(err, terneo.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, terneo.ErrOutOfRange),
		errors.Is(err, terneo.ErrInvalidSchedule),
		errors.Is(err, terneo.ErrDecode),
		errors.Is(err, terneo.ErrUnsupportedType),
		errors.Is(err, service.ErrInvalidPreset),
		errors.Is(err, service.ErrUnknownParameter):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError picks the status from the error and echoes its message.
func (h *Handler) respondDomainError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	if h.log != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// RegisterDeviceRequest is the payload for adding a device.
type RegisterDeviceRequest struct {
	// Device serial number as printed in the beacon
	Serial string `json:"serial" binding:"required" example:"A1B2C3D4E5F60708090A0B0C0D0E0F10"`
	// IP or host the device answers on
	Host string `json:"host" binding:"required" example:"192.168.1.23"`
	// Optional friendly name
	Name string `json:"name,omitempty" example:"bathroom floor"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List registered devices
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [get]
func (h *Handler) listDevices(c *gin.Context) {
	ctx := c.Request.Context()
	devices, err := h.services.Devices.List(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to list devices", "devices_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(devices),
		"devices": devices,
	})
}

// @Summary      Register a device
// @Tags         devices
// @Accept       json
// @Produce      json
// @Param        body  body  RegisterDeviceRequest  true  "Device to add"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices [post]
func (h *Handler) registerDevice(c *gin.Context) {
	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Devices.Register(ctx, req.Serial, req.Host, req.Name); err != nil {
		h.respondDomainError(c, "device_register_failed", err, "serial", req.Serial)
		return
	}
	st, err := h.services.Monitoring.GetState(ctx, req.Serial)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"status": statusRegistered})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusRegistered, "state": st})
}

// @Summary      Unregister a device
// @Tags         devices
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/devices/{serial} [delete]
func (h *Handler) unregisterDevice(c *gin.Context) {
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Devices.Unregister(ctx, serial); err != nil {
		h.respondDomainError(c, "device_unregister_failed", err, "serial", serial)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusUnregistered})
}

// @Summary      Get device state
// @Description  Returns the last synchronized state without touching the device.
// @Tags         devices
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/devices/{serial} [get]
func (h *Handler) getDeviceState(c *gin.Context) {
	ctx := c.Request.Context()
	serial := c.Param("serial")
	st, err := h.services.Monitoring.GetState(ctx, serial)
	if err != nil {
		h.respondDomainError(c, "device_get_state_failed", err, "serial", serial)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Refresh device state
// @Description  Reads the device immediately instead of waiting for the poll tick.
// @Tags         devices
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/refresh [post]
func (h *Handler) refreshDevice(c *gin.Context) {
	ctx := c.Request.Context()
	serial := c.Param("serial")
	st, err := h.services.Monitoring.Refresh(ctx, serial)
	if err != nil {
		h.respondDomainError(c, "device_refresh_failed", err, "serial", serial)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      List discovered devices
// @Description  Devices that announced themselves on the network but are not registered.
// @Tags         devices
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, devices"
// @Router       /api/v1/discovery [get]
func (h *Handler) listDiscovered(c *gin.Context) {
	ctx := c.Request.Context()
	beacons := h.services.Devices.Discovered(ctx)
	c.JSON(http.StatusOK, gin.H{
		"count":   len(beacons),
		"devices": beacons,
	})
}
