package handlers

import (
	"errors"
	"net/http"
	"time"

	"mixergy_bridge/internal/service"
	"mixergy_bridge/internal/tank"

	"github.com/gin-gonic/gin"
)

const (
	statusOK             = "ok"
	statusChargeSet      = "charge_set"
	statusTemperatureSet = "target_temperature_set"
	statusSettingsSet    = "settings_updated"
	statusHolidaySet     = "holiday_set"
	statusHolidayCleared = "holiday_cleared"
	statusScheduleSet    = "schedule_set"

	errGetState        = "failed to load state"
	errRefresh         = "failed to refresh state"
	errTankCommand     = "tank command failed"
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

// commandError maps a failed tank command to a response: bad input is the
// caller's fault, a missing schedule is a conflict, anything else came from
// upstream.
func (h *Handler) commandError(c *gin.Context, logKey string, err error) {
	var se *tank.StatusError
	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, tank.ErrNoSchedule):
		h.logAndJSONError(c, http.StatusConflict, err.Error(), logKey, err)
	case errors.Is(err, tank.ErrAuthenticationFailed), errors.Is(err, tank.ErrNotResolved),
		errors.Is(err, tank.ErrTankNotFound), errors.As(err, &se):
		h.logAndJSONError(c, http.StatusBadGateway, errTankCommand, logKey, err)
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, errTankCommand, logKey, err)
	}
}

// Respond with a status and include current state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// SetChargeRequest is the payload of POST /tank/charge.
type SetChargeRequest struct {
	// Target charge in percent
	Charge *int `json:"charge" binding:"required" example:"80"`
}

// SetTargetTemperatureRequest is the payload of POST /tank/target-temperature.
type SetTargetTemperatureRequest struct {
	// Maximum water temperature in Celsius, clamped to 45..70
	Celsius *float64 `json:"celsius" binding:"required" example:"55"`
}

// UpdateSettingsRequest lists the settings to change. Omitted fields are left alone.
type UpdateSettingsRequest struct {
	TargetTemperatureControl *bool    `json:"target_temperature_control,omitempty"`
	DSR                      *bool    `json:"dsr,omitempty"`
	FrostProtection          *bool    `json:"frost_protection,omitempty"`
	DistributedComputing     *bool    `json:"distributed_computing,omitempty"`
	CleansingTemperature     *float64 `json:"cleansing_temperature,omitempty" example:"53"`
	DivertExported           *bool    `json:"divert_exported,omitempty"`
	PVCutInThreshold         *float64 `json:"pv_cut_in_threshold,omitempty" example:"100"`
	PVChargeLimit            *float64 `json:"pv_charge_limit,omitempty" example:"80"`
	PVTargetCurrent          *float64 `json:"pv_target_current,omitempty" example:"-0.5"`
	PVOverTemperature        *float64 `json:"pv_over_temperature,omitempty" example:"50"`
}

// SetHolidayRequest is the payload of POST /tank/holiday.
type SetHolidayRequest struct {
	Start time.Time `json:"start" binding:"required" example:"2026-08-01T00:00:00Z"`
	End   time.Time `json:"end" binding:"required" example:"2026-08-15T00:00:00Z"`
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

// @Summary      Get tank state
// @Description  Returns the cached snapshot without contacting the Mixergy API.
// @Tags         tank
// @Produce      json
// @Success      200  {object}  models.TankSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tank/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	st, err := h.services.Monitoring.GetState(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetState, "tank_get_state_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Refresh tank state
// @Description  Fetches measurement, settings and schedule, then returns the snapshot.
// @Tags         tank
// @Produce      json
// @Success      200  {object}  models.TankSnapshot
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/tank/refresh [post]
// @Security     BearerAuth
func (h *Handler) refresh(c *gin.Context) {
	st, err := h.services.Monitoring.Refresh(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errRefresh, "tank_refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Set target charge
// @Tags         tank
// @Accept       json
// @Produce      json
// @Param        body  body      SetChargeRequest  true  "Charge payload"
// @Success      200   {object}  map[string]interface{}  "status, state"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/tank/charge [post]
// @Security     BearerAuth
func (h *Handler) setCharge(c *gin.Context) {
	var req SetChargeRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	err := h.services.Control.SetCharge(c.Request.Context(), service.ChargeParams{Charge: *req.Charge})
	if err != nil {
		h.commandError(c, "tank_set_charge_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusChargeSet, gin.H{"charge": *req.Charge})
}

// @Summary      Set target temperature
// @Tags         tank
// @Accept       json
// @Produce      json
// @Param        body  body      SetTargetTemperatureRequest  true  "Temperature payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/tank/target-temperature [post]
// @Security     BearerAuth
func (h *Handler) setTargetTemperature(c *gin.Context) {
	var req SetTargetTemperatureRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	err := h.services.Control.SetTargetTemperature(c.Request.Context(), service.TemperatureParams{Celsius: *req.Celsius})
	if err != nil {
		h.commandError(c, "tank_set_target_temperature_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusTemperatureSet, gin.H{})
}

// @Summary      Update settings
// @Description  PV fields are only accepted for tanks with a PV diverter.
// @Tags         tank
// @Accept       json
// @Produce      json
// @Param        body  body      UpdateSettingsRequest  true  "Settings to change"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/tank/settings [patch]
// @Security     BearerAuth
func (h *Handler) updateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	err := h.services.Control.UpdateSettings(c.Request.Context(), service.SettingsParams{
		TargetTemperatureControl: req.TargetTemperatureControl,
		DSR:                      req.DSR,
		FrostProtection:          req.FrostProtection,
		DistributedComputing:     req.DistributedComputing,
		CleansingTemperature:     req.CleansingTemperature,
		DivertExported:           req.DivertExported,
		PVCutInThreshold:         req.PVCutInThreshold,
		PVChargeLimit:            req.PVChargeLimit,
		PVTargetCurrent:          req.PVTargetCurrent,
		PVOverTemperature:        req.PVOverTemperature,
	})
	if err != nil {
		h.commandError(c, "tank_update_settings_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusSettingsSet, gin.H{})
}

// @Summary      Set holiday dates
// @Tags         tank
// @Accept       json
// @Produce      json
// @Param        body  body      SetHolidayRequest  true  "Holiday range"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/tank/holiday [post]
// @Security     BearerAuth
func (h *Handler) setHoliday(c *gin.Context) {
	var req SetHolidayRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	err := h.services.Control.SetHolidayDates(c.Request.Context(), service.HolidayParams{Start: req.Start, End: req.End})
	if err != nil {
		h.commandError(c, "tank_set_holiday_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusHolidaySet, gin.H{})
}

// @Summary      Clear holiday dates
// @Tags         tank
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/tank/holiday [delete]
// @Security     BearerAuth
func (h *Handler) clearHoliday(c *gin.Context) {
	if err := h.services.Control.ClearHolidayDates(c.Request.Context()); err != nil {
		h.commandError(c, "tank_clear_holiday_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusHolidayCleared, gin.H{})
}

// @Summary      Replace schedule
// @Description  Sends the document as-is; it must be a non-empty JSON object.
// @Tags         tank
// @Accept       json
// @Produce      json
// @Param        body  body      map[string]interface{}  true  "Schedule document"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/tank/schedule [put]
// @Security     BearerAuth
func (h *Handler) setSchedule(c *gin.Context) {
	var doc map[string]any
	if !h.bindJSONOrBadRequest(c, &doc) {
		return
	}
	if err := h.services.Control.SetSchedule(c.Request.Context(), doc); err != nil {
		h.commandError(c, "tank_set_schedule_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusScheduleSet, gin.H{})
}
