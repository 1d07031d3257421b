package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dinehall-loyalty-service/internal/api_gateway/service"
	"github.com/dinehall-loyalty-service/internal/domain/activity"
)

// ActivityHandler handles HTTP requests for the staff activity feed
type ActivityHandler struct {
	activityService service.ActivityService
	logger          *slog.Logger
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(logger *slog.Logger, activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// List retrieves a paginated page of archived loyalty activity, newest first
func (h *ActivityHandler) List(c *gin.Context) {
	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	activities, total, err := h.activityService.ListActivities(c.Request.Context(), pagination.Page, pagination.PerPage)
	if err != nil {
		h.logger.Error("Failed to list activity", "error", err)
		RespondInternalError(c)
		return
	}

	feed := make([]ActivityResponse, 0, len(activities))
	for _, act := range activities {
		feed = append(feed, mapActivityToResponse(act))
	}

	RespondWithPaginatedData(c, http.StatusOK, feed, pagination.Page, pagination.PerPage, int(total))
}

// mapActivityToResponse maps an archived activity to a feed response DTO
func mapActivityToResponse(act *activity.Activity) ActivityResponse {
	response := ActivityResponse{
		EntryID:      act.EntryID.String(),
		AccountID:    act.AccountID.String(),
		Kind:         act.Kind,
		Amount:       act.Amount,
		BalanceAfter: act.BalanceAfter,
		OccurredAt:   act.OccurredAt.Format(time.RFC3339),
		RecordedAt:   act.RecordedAt.Format(time.RFC3339),
	}

	if act.OrderID != nil {
		response.OrderID = act.OrderID.String()
	}

	return response
}
