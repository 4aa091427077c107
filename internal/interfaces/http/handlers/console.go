package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentops/console/internal/application/usecase"
	"github.com/agentops/console/internal/domain/entity"
	apperrors "github.com/agentops/console/pkg/errors"
)

const msgSaveSettingsFailed = "Failed to save settings"

// DashboardHandler serves the home page.
type DashboardHandler struct {
	dashboard DashboardService
	pages     *Pages
}

// NewDashboardHandler creates the handler.
func NewDashboardHandler(dashboard DashboardService, pages *Pages) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, pages: pages}
}

// Show handles GET /.
func (h *DashboardHandler) Show(c *gin.Context) {
	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		h.pages.Error(c, http.StatusInternalServerError, apperrors.Detail(err, "Failed to load dashboard"))
		return
	}
	h.pages.Render(c, http.StatusOK, "dashboard.html", PageData{
		Title:  "Dashboard",
		Active: "dashboard",
		Data:   summary,
	})
}

// SettingsHandler serves the settings page.
type SettingsHandler struct {
	settings SettingsService
	pages    *Pages
	logger   *zap.Logger
}

// NewSettingsHandler creates the handler.
func NewSettingsHandler(settings SettingsService, pages *Pages, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settings: settings,
		pages:    pages,
		logger:   logger.With(zap.String("handler", "settings")),
	}
}

// Show handles GET /settings.
func (h *SettingsHandler) Show(c *gin.Context) {
	prefs, err := h.settings.Load(c.Request.Context())
	if err != nil {
		h.pages.Error(c, http.StatusInternalServerError, apperrors.Detail(err, "Failed to load settings"))
		return
	}
	h.render(c, http.StatusOK, prefs, nil)
}

// Save handles POST /settings. The stored key is kept when the field is
// left blank.
func (h *SettingsHandler) Save(c *gin.Context) {
	ctx := c.Request.Context()
	current, err := h.settings.Load(ctx)
	if err != nil {
		h.pages.Error(c, http.StatusInternalServerError, apperrors.Detail(err, "Failed to load settings"))
		return
	}

	prefs := current
	prefs.Theme = c.PostForm("theme")
	prefs.Notifications = c.PostForm("notifications") == "on"
	if key := c.PostForm("api_key"); key != "" {
		prefs.APIKey = key
	}
	if c.PostForm("clear_api_key") == "on" {
		prefs.APIKey = ""
	}

	if _, err := h.settings.Save(ctx, prefs); err != nil {
		text := apperrors.Detail(err, msgSaveSettingsFailed)
		if apperrors.IsInvalidInput(err) {
			text = validationText(err)
		}
		h.render(c, apperrors.HTTPStatus(err), prefs, &Notice{Text: text, Error: true})
		return
	}
	setFlash(c, usecase.MsgSettingsSaved, false)
	c.Redirect(http.StatusSeeOther, "/settings")
}

func (h *SettingsHandler) render(c *gin.Context, status int, prefs entity.Preferences, notice *Notice) {
	h.pages.Render(c, status, "settings.html", PageData{
		Title:  "Settings",
		Active: "settings",
		Notice: notice,
		Data:   prefs,
	})
}

// HealthHandler reports the console's own health and the backend's.
type HealthHandler struct {
	backend HealthChecker
	timeout time.Duration
}

// NewHealthHandler creates the handler. backend may be nil.
func NewHealthHandler(backend HealthChecker) *HealthHandler {
	return &HealthHandler{backend: backend, timeout: 3 * time.Second}
}

// Health handles GET /health. The console is healthy even when the
// backend is not; the backend state is reported alongside.
func (h *HealthHandler) Health(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	}
	if h.backend != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()
		if err := h.backend.Health(ctx); err != nil {
			resp["backend"] = "unreachable"
			resp["backend_error"] = err.Error()
		} else {
			resp["backend"] = "ok"
		}
	}
	c.JSON(http.StatusOK, resp)
}
