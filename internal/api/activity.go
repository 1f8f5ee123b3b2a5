package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dchat/internal/apperr"
	"dchat/internal/models"
	"dchat/internal/repository"
)

// ActivityHandler serves the admin-only audit log queries.
type ActivityHandler struct {
	activities repository.ActivityRepository
	logger     *zap.Logger
}

func NewActivityHandler(activities repository.ActivityRepository, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

type activityListResponse struct {
	Activities []models.Activity `json:"activities,omitempty"`
	Error      *string           `json:"error"`
}

// List handles GET /v1/activity?type=&since=. Routed behind RequireAdmin.
func (h *ActivityHandler) List(c *gin.Context) {
	typ, ok := models.ParseActivityType(c.Query("type"))
	if !ok {
		writeError(c, h.logger, http.StatusBadRequest, apperr.Validation("Invalid activity type"))
		return
	}

	since, err := sinceQuery(c)
	if err != nil {
		writeError(c, h.logger, http.StatusBadRequest, err)
		return
	}

	activities, err := h.activities.ListByTypeSince(c.Request.Context(), typ, since)
	if err != nil {
		writeError(c, h.logger, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, activityListResponse{Activities: activities})
}
