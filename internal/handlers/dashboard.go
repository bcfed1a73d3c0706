package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK       = "ok"
	statusAttached = "attached"
	statusDetached = "detached"
	statusSelected = "device_selected"

	errNoView       = "no dashboard data yet"
	errSelectDevice = "failed to select device"
	errAttachSource = "failed to attach source"
	errDetachSource = "failed to detach source"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Request DTO for selecting the active device.
type selectDeviceRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// Request DTO for attaching a telemetry source.
type attachSourceRequest struct {
	URL string `json:"url" binding:"required"`
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

// @Summary      Current dashboard view
// @Description  Derived view for the selected device: latest turns, sync time, diagnostics, event log, daily compliance.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  valvewatch.DashboardView
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/dashboard [get]
// @Security     BearerAuth
func (h *Handler) getView(c *gin.Context) {
	ctx := c.Request.Context()
	view, ok := h.services.Dashboard.View(ctx)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": errNoView})
		return
	}
	c.JSON(http.StatusOK, view)
}

// @Summary      Known devices
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "devices, current"
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/dashboard/devices [get]
// @Security     BearerAuth
func (h *Handler) getDevices(c *gin.Context) {
	ctx := c.Request.Context()
	devices, current := h.services.Dashboard.Devices(ctx)
	c.JSON(http.StatusOK, gin.H{
		"devices": devices,
		"current": current,
	})
}

// @Summary      Select the active device
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body  selectDeviceRequest  true  "Device payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/dashboard/device [post]
// @Security     BearerAuth
func (h *Handler) selectDevice(c *gin.Context) {
	var req selectDeviceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.services.Dashboard.SelectDevice(ctx, req.DeviceID); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errSelectDevice, "dashboard_select_device_failed", err, "device", req.DeviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSelected, "device": req.DeviceID})
}

// @Summary      Attach a telemetry source
// @Description  Normalizes the base URL and starts the 2s poll loop against {base}/api/history.
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body  attachSourceRequest  true  "Source payload"
// @Success      200   {object}  map[string]interface{}  "status, base_url"
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/dashboard/source [post]
// @Security     BearerAuth
func (h *Handler) attachSource(c *gin.Context) {
	var req attachSourceRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}
	ctx := c.Request.Context()
	base, err := h.services.Source.Attach(ctx, req.URL)
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errAttachSource, "dashboard_attach_source_failed", err, "url", req.URL)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusAttached, "base_url": base})
}

// @Summary      Detach the telemetry source
// @Description  Cancels the poll loop. The last rendered view stays available.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/dashboard/source [delete]
// @Security     BearerAuth
func (h *Handler) detachSource(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.services.Source.Detach(ctx); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errDetachSource, "dashboard_detach_source_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusDetached})
}
