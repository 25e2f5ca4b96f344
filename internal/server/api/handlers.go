package api

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"nospace/internal/server/service"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether a backing dependency is reachable.
// *database.DB implements it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains the HTTP handlers for the nospace API.
type Handler struct {
	svc *service.AnalysisService
	db  HealthChecker
}

// NewHandler creates a new handler with the given service dependency.
func NewHandler(svc *service.AnalysisService, db HealthChecker) *Handler {
	return &Handler{svc: svc, db: db}
}

// HandleAnalyze handles POST /api/analyze.
// Accepts a multipart form with a "file" field and optional "password" field.
func (h *Handler) HandleAnalyze(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "transcript is required (use form field 'file')",
		})
	}

	src, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to read uploaded transcript",
		})
	}
	defer src.Close()

	password := c.FormValue("password")

	result, err := h.svc.ProcessTranscript(
		c.Request().Context(),
		fileHeader.Filename,
		src,
		fileHeader.Size,
		password,
	)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, result)
}

// HandleInfo handles GET /api/analysis/:id.
// Returns the stored answers without touching the transcript.
func (h *Handler) HandleInfo(c echo.Context) error {
	info, err := h.svc.GetInfo(c.Request().Context(), c.Param("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, info)
}

// HandleTree handles GET /api/analysis/:id/tree.
// Returns the indented tree dump as plain text.
func (h *Handler) HandleTree(c echo.Context) error {
	tree, err := h.svc.Tree(c.Request().Context(), c.Param("id"), c.QueryParam("password"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.String(http.StatusOK, tree)
}

// HandleDirs handles GET /api/analysis/:id/dirs?min=&max=.
// Both bounds are inclusive and optional.
func (h *Handler) HandleDirs(c echo.Context) error {
	minSize, err := parseSizeParam(c.QueryParam("min"), 0)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min must be a non-negative integer"})
	}
	maxSize, err := parseSizeParam(c.QueryParam("max"), math.MaxUint64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max must be a non-negative integer"})
	}

	dirs, err := h.svc.Dirs(c.Request().Context(), c.Param("id"), c.QueryParam("password"), minSize, maxSize)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"min":  minSize,
		"max":  maxSize,
		"dirs": dirs,
	})
}

// HandleTranscript handles GET /api/analysis/:id/raw.
// Serves the stored transcript as an attachment.
func (h *Handler) HandleTranscript(c echo.Context) error {
	filePath, filename, err := h.svc.Transcript(c.Request().Context(), c.Param("id"), c.QueryParam("password"))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Attachment(filePath, filename)
}

// HandleDelete handles DELETE /api/analysis/:id/:token.
// Deletes an analysis using the token handed out when it was created.
func (h *Handler) HandleDelete(c echo.Context) error {
	if err := h.svc.DeleteAnalysis(c.Request().Context(), c.Param("id"), c.Param("token")); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "analysis deleted successfully",
	})
}

// HandleHealth handles GET /health.
// Returns the health status of the server, including database connectivity.
func (h *Handler) HandleHealth(c echo.Context) error {
	status := "healthy"
	dbStatus := "connected"

	if err := h.db.HealthCheck(c.Request().Context()); err != nil {
		status = "degraded"
		dbStatus = fmt.Sprintf("error: %v", err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":   status,
		"database": dbStatus,
	})
}

// HandleStats handles GET /api/stats.
func (h *Handler) HandleStats(c echo.Context) error {
	stats, err := h.svc.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"error": "failed to retrieve stats",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"total_analyses":     stats.TotalAnalyses,
		"active_analyses":    stats.ActiveAnalyses,
		"total_views":        stats.TotalViews,
		"storage_used_bytes": stats.StorageUsed,
		"storage_used_human": humanizeBytes(stats.StorageUsed),
	})
}

func parseSizeParam(raw string, fallback uint64) (uint64, error) {
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseUint(raw, 10, 64)
}

// mapServiceError translates service-layer errors into appropriate HTTP responses.
func mapServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "analysis not found"})
	case errors.Is(err, service.ErrExpired):
		return c.JSON(http.StatusGone, echo.Map{"error": "analysis has expired"})
	case errors.Is(err, service.ErrPasswordRequired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "password_required"})
	case errors.Is(err, service.ErrInvalidPassword):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid password"})
	case errors.Is(err, service.ErrInvalidToken):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid deletion token"})
	case errors.Is(err, service.ErrLogTooLarge):
		return c.JSON(http.StatusRequestEntityTooLarge, echo.Map{
			"error": "transcript exceeds maximum allowed size",
		})
	case errors.Is(err, service.ErrEmptyLog):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transcript is empty"})
	case errors.Is(err, service.ErrNotTranscript):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidRange):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "min must not exceed max"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// humanizeBytes formats a byte count into a human-readable string.
func humanizeBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
