package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"go.ngs.io/tides/internal/adapter/interp"
	"go.ngs.io/tides/internal/adapter/store"
	"go.ngs.io/tides/internal/domain"
	"go.ngs.io/tides/internal/usecase"
)

// Handler handles HTTP requests for tide predictions.
type Handler struct {
	predictionUC *usecase.PredictionUseCase
}

// NewHandler creates a new HTTP handler.
func NewHandler(predictionUC *usecase.PredictionUseCase) *Handler {
	return &Handler{
		predictionUC: predictionUC,
	}
}

// statusFor maps use case errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, usecase.ErrInvalidRequest),
		errors.Is(err, domain.ErrUnsupportedConstituent),
		errors.Is(err, domain.ErrConstituentCombination):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, interp.ErrCoordinateOutOfRange),
		errors.Is(err, interp.ErrLandMask),
		errors.Is(err, interp.ErrRangeConfiguration):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func abort(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

// parsePredictionRequest reads the prediction query. Times are RFC3339 and
// converted to UTC; the interval defaults to 10m.
func parsePredictionRequest(c *gin.Context) (usecase.PredictionRequest, error) {
	req := usecase.PredictionRequest{
		Datum:  c.Query("datum"),
		Source: c.Query("source"),
		Nodal:  c.Query("nodal"),
	}

	if latStr, lonStr := c.Query("lat"), c.Query("lon"); latStr != "" || lonStr != "" {
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return req, fmt.Errorf("invalid latitude: %w", err)
		}
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return req, fmt.Errorf("invalid longitude: %w", err)
		}
		req.Lat, req.Lon = &lat, &lon
	}
	if id := c.Query("station_id"); id != "" {
		req.StationID = &id
	}

	for _, p := range []struct {
		key string
		dst *time.Time
	}{{"start", &req.Start}, {"end", &req.End}} {
		raw := c.Query(p.key)
		if raw == "" {
			return req, fmt.Errorf("%s parameter is required", p.key)
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return req, fmt.Errorf("invalid %s time (expected RFC3339): %w", p.key, err)
		}
		*p.dst = ts.UTC()
	}

	interval, err := time.ParseDuration(c.DefaultQuery("interval", "10m"))
	if err != nil {
		return req, fmt.Errorf("invalid interval: %w", err)
	}
	req.Interval = interval
	return req, nil
}

// GetPredictions handles GET /v1/tides/predictions.
func (h *Handler) GetPredictions(c *gin.Context) {
	req, err := parsePredictionRequest(c)
	if err != nil {
		abort(c, http.StatusBadRequest, err.Error())
		return
	}

	response, err := h.predictionUC.Execute(req)
	if err != nil {
		abort(c, statusFor(err), err.Error())
		return
	}

	ObservePrediction(response.Source)
	c.JSON(http.StatusOK, response)
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// ConstituentListResponse is the response for listing constituents.
type ConstituentListResponse struct {
	usecase.ConstituentInfo
	Description string `json:"description,omitempty"`
}

var descriptions = map[string]string{
	"M2":  "Principal lunar semidiurnal",
	"S2":  "Principal solar semidiurnal",
	"N2":  "Larger lunar elliptic semidiurnal",
	"K2":  "Lunisolar semidiurnal",
	"K1":  "Lunisolar diurnal",
	"O1":  "Principal lunar diurnal",
	"P1":  "Principal solar diurnal",
	"Q1":  "Larger lunar elliptic diurnal",
	"M4":  "Shallow water overtide of M2",
	"M6":  "Shallow water overtide of M2",
	"MK3": "Shallow water terdiurnal",
	"S4":  "Shallow water overtide of S2",
	"MN4": "Shallow water quarter diurnal",
	"MS4": "Shallow water quarter diurnal",
	"MF":  "Lunisolar fortnightly",
	"MM":  "Lunar monthly",
	"SSA": "Solar semiannual",
	"SA":  "Solar annual",
}

// GetConstituentsList handles GET /v1/constituents.
func (h *Handler) GetConstituentsList(c *gin.Context) {
	constituents := h.predictionUC.GetAllConstituents()

	response := make([]ConstituentListResponse, len(constituents))
	for i, info := range constituents {
		response[i] = ConstituentListResponse{
			ConstituentInfo: info,
			Description:     descriptions[strings.ToUpper(info.Name)],
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"constituents": response,
		"count":        len(response),
	})
}

// GetDecomposition handles GET /v1/constituents/:name/decomposition.
func (h *Handler) GetDecomposition(c *gin.Context) {
	info, err := h.predictionUC.Decompose(c.Param("name"))
	if err != nil {
		abort(c, statusFor(err), err.Error())
		return
	}
	c.JSON(http.StatusOK, info)
}
