package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/daniil11ru/gpstrack/cli/receiver/assembly"
	"github.com/daniil11ru/gpstrack/cli/receiver/domain"
	"github.com/daniil11ru/gpstrack/cli/receiver/dto/response"
	"github.com/daniil11ru/gpstrack/cli/receiver/session"
	"github.com/daniil11ru/gpstrack/cli/receiver/track"
	"github.com/daniil11ru/gpstrack/cli/receiver/types"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	SaveBatch        *domain.SaveBatch
	ReconstructTrack *domain.ReconstructTrack
	AnalyzeStability *domain.AnalyzeStability
	UpdateReference  *domain.UpdateReference
}

// formValue значение из формы, а если его нет – из строки запроса
func formValue(c *gin.Context, key string) string {
	if v := c.PostForm(key); v != "" {
		return v
	}
	return c.Query(key)
}

func (h *Handler) SaveGPS(c *gin.Context) {
	raw := formValue(c, "gps_raw")
	mac := formValue(c, "mac")

	result, err := h.SaveBatch.Run(c.Request.Context(), mac, raw)
	if err != nil {
		switch {
		case errors.Is(err, assembly.ErrEmptyBatch), errors.Is(err, assembly.ErrMissingDevice):
			c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, response.SaveGPS{
		Status:     "success",
		Inserted:   result.Inserted,
		Duplicates: result.Duplicates,
		Skipped:    result.Skipped,
		Malformed:  result.Malformed,
		Reasons:    result.Reasons,
	})
}

func (h *Handler) GetHistory(c *gin.Context) {
	request := domain.TrackRequest{
		SessionID: c.Query("session"),
		DeviceID:  c.Query("mac"),
	}

	if hoursStr := c.Query("hours"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное значение hours: " + hoursStr})
			return
		}
		request.Hours = hours
	}
	if thresholdStr := c.Query("threshold"); thresholdStr != "" {
		threshold, err := strconv.ParseFloat(thresholdStr, 64)
		if err != nil || threshold < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное значение threshold: " + thresholdStr})
			return
		}
		request.Threshold = &threshold
	}
	if modeStr := c.Query("mode"); modeStr != "" {
		mode, err := track.ParseMode(modeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		request.Mode = mode
	}

	result, err := h.ReconstructTrack.Run(c.Request.Context(), request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewHistory(result.Points))
}

func (h *Handler) GetStability(c *gin.Context) {
	request := domain.StabilityRequest{
		SessionID: c.Query("session"),
		DeviceID:  c.Query("mac"),
	}
	if hoursStr := c.Query("hours"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err != nil || hours <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "некорректное значение hours: " + hoursStr})
			return
		}
		request.Hours = hours
	}

	records, err := h.AnalyzeStability.Run(c.Request.Context(), request)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewStability(records))
}

func (h *Handler) UpdateBase(c *gin.Context) {
	sessionID := c.Param("id")

	latitude, errLat := strconv.ParseFloat(strings.TrimSpace(c.PostForm("latitude")), 64)
	longitude, errLon := strconv.ParseFloat(strings.TrimSpace(c.PostForm("longitude")), 64)
	if errLat != nil || errLon != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "некорректные координаты базовой станции"})
		return
	}

	reference := types.Reference{
		DeviceID:  strings.TrimSpace(c.PostForm("mac")),
		Latitude:  latitude,
		Longitude: longitude,
	}
	reference, err := h.UpdateReference.Run(c.Request.Context(), sessionID, reference)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.UpdateBase{
		Success:       true,
		Message:       "координаты базовой станции обновлены",
		BaseMAC:       reference.DeviceID,
		BaseLatitude:  reference.Latitude,
		BaseLongitude: reference.Longitude,
	})
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		log.WithField("path", c.FullPath()).Errorf("Ошибка обработки запроса: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
