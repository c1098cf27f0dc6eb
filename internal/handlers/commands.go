package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"terneo_bridge/internal/models"

	"github.com/gin-gonic/gin"
)

// PowerRequest toggles the thermostat.
type PowerRequest struct {
	On *bool `json:"on" binding:"required" example:"true"`
}

// SetpointRequest sets the target temperature in °C.
type SetpointRequest struct {
	Celsius *float64 `json:"celsius" binding:"required" example:"22.5"`
}

// PresetRequest switches the setpoint source. Allowed: schedule, manual.
type PresetRequest struct {
	Preset string `json:"preset" binding:"required" example:"manual"`
}

// ParameterWrite is one raw parameter write.
type ParameterWrite struct {
	ID    int    `json:"id" example:"23"`
	Value string `json:"value" example:"5"`
}

// dayNames maps the URL day segment to a weekday.
var dayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

func parseWeekday(s string) (time.Weekday, bool) {
	d, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// respondWithState answers a successful command with the optimistic state.
func (h *Handler) respondWithState(c *gin.Context, serial string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": statusOK}
	for k, v := range extra {
		resp[k] = v
	}
	if st, err := h.services.Monitoring.GetState(ctx, serial); err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Set power
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        serial  path  string        true  "Device serial"
// @Param        body    body  PowerRequest  true  "Power payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/power [post]
func (h *Handler) setPower(c *gin.Context) {
	var req PowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetPower(ctx, serial, *req.On); err != nil {
		h.respondDomainError(c, "set_power_failed", err, "serial", serial)
		return
	}
	h.respondWithState(c, serial, gin.H{"power": *req.On})
}

// @Summary      Set target temperature
// @Description  Writes into the setpoint the active mode reads from. Values outside the device's own limits are rejected.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        serial  path  string           true  "Device serial"
// @Param        body    body  SetpointRequest  true  "Setpoint payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/setpoint [post]
func (h *Handler) setSetpoint(c *gin.Context) {
	var req SetpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetSetpoint(ctx, serial, *req.Celsius); err != nil {
		h.respondDomainError(c, "set_setpoint_failed", err, "serial", serial, "celsius", *req.Celsius)
		return
	}
	h.respondWithState(c, serial, gin.H{"setpoint": *req.Celsius})
}

// @Summary      Set preset
// @Description  Switches between schedule and manual operation. Away and temporary are entered by the device itself.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        serial  path  string         true  "Device serial"
// @Param        body    body  PresetRequest  true  "Preset payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/preset [post]
func (h *Handler) setPreset(c *gin.Context) {
	var req PresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetPreset(ctx, serial, req.Preset); err != nil {
		h.respondDomainError(c, "set_preset_failed", err, "serial", serial, "preset", req.Preset)
		return
	}
	h.respondWithState(c, serial, gin.H{"preset": req.Preset})
}

// @Summary      Get weekly schedule
// @Tags         schedule
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/schedule [get]
func (h *Handler) getSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	serial := c.Param("serial")
	week, err := h.services.Monitoring.GetSchedule(ctx, serial)
	if err != nil {
		h.respondDomainError(c, "get_schedule_failed", err, "serial", serial)
		return
	}
	out := make(map[string][]models.SchedulePeriod, len(week))
	for day, periods := range week {
		out[strings.ToLower(day.String())] = periods
	}
	c.JSON(http.StatusOK, gin.H{"schedule": out})
}

// @Summary      Replace weekly schedule
// @Description  Body maps lowercase day names to period lists. Only the days present are written.
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/schedule [put]
func (h *Handler) setWeeklySchedule(c *gin.Context) {
	var body map[string][]models.SchedulePeriod
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	week := make(map[time.Weekday][]models.SchedulePeriod, len(body))
	for name, periods := range body {
		day, ok := parseWeekday(name)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown day %q", name)})
			return
		}
		week[day] = periods
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetWeeklySchedule(ctx, serial, week); err != nil {
		h.respondDomainError(c, "set_schedule_failed", err, "serial", serial)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Replace one day of the schedule
// @Tags         schedule
// @Accept       json
// @Produce      json
// @Param        serial  path  string  true  "Device serial"
// @Param        day     path  string  true  "Day name (monday..sunday)"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/schedule/{day} [put]
func (h *Handler) setScheduleDay(c *gin.Context) {
	day, ok := parseWeekday(c.Param("day"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown day %q", c.Param("day"))})
		return
	}
	var periods []models.SchedulePeriod
	if err := c.ShouldBindJSON(&periods); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetScheduleDay(ctx, serial, day, periods); err != nil {
		h.respondDomainError(c, "set_schedule_day_failed", err, "serial", serial, "day", day.String())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusOK})
}

// @Summary      Program the away window
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        serial  path  string             true  "Device serial"
// @Param        body    body  models.AwayWindow  true  "Away window"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/away [put]
func (h *Handler) setAwayWindow(c *gin.Context) {
	var w models.AwayWindow
	if err := c.ShouldBindJSON(&w); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	if err := h.services.Control.SetAwayWindow(ctx, serial, w); err != nil {
		h.respondDomainError(c, "set_away_failed", err, "serial", serial)
		return
	}
	h.respondWithState(c, serial, gin.H{})
}

// @Summary      Write raw parameters
// @Description  Writes parameters by id. Each write is validated against the known wire type before it is sent.
// @Tags         commands
// @Accept       json
// @Produce      json
// @Param        serial  path  string            true  "Device serial"
// @Param        body    body  []ParameterWrite  true  "Parameters to write"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/devices/{serial}/parameters [post]
func (h *Handler) setParameters(c *gin.Context) {
	var writes []ParameterWrite
	if err := c.ShouldBindJSON(&writes); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if len(writes) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty parameter list"})
		return
	}
	ctx := c.Request.Context()
	serial := c.Param("serial")
	for _, w := range writes {
		if err := h.services.Control.SetRawParameter(ctx, serial, w.ID, w.Value); err != nil {
			h.respondDomainError(c, "set_parameter_failed", err, "serial", serial, "id", w.ID)
			return
		}
	}
	h.respondWithState(c, serial, gin.H{"written": len(writes)})
}
