package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dinehall-loyalty-service/internal/domain/points"
	"github.com/dinehall-loyalty-service/internal/loyalty"
)

// PointsHandler handles HTTP requests for loyalty points operations
type PointsHandler struct {
	reservations loyalty.ReservationService
	queries      loyalty.QueryService
	logger       *slog.Logger
}

// NewPointsHandler creates a new points handler
func NewPointsHandler(logger *slog.Logger, reservations loyalty.ReservationService, queries loyalty.QueryService) *PointsHandler {
	return &PointsHandler{
		reservations: reservations,
		queries:      queries,
		logger:       logger,
	}
}

// Reserve applies points to a pending order on behalf of a staff member.
// Calling it again for the same order replaces the existing reservation.
func (h *PointsHandler) Reserve(c *gin.Context) {
	orderSlug := c.Param("slug")

	var req ReservePointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		h.logger.Error("Invalid actor ID", "actor_id", req.ActorID, "error", err)
		RespondBadRequest(c, "Invalid actor ID")
		return
	}

	result, err := h.reservations.Reserve(c.Request.Context(), orderSlug, req.Points, actorID)
	if err != nil {
		h.respondLoyaltyError(c, err)
		return
	}

	RespondOK(c, ReservePointsResponse{
		OrderSlug:   orderSlug,
		PointsUsed:  result.PointsUsed,
		FinalAmount: result.FinalAmount,
	})
}

// GetBalance returns the customer's spendable points balance
func (h *PointsHandler) GetBalance(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid user ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	balance, err := h.queries.GetBalance(c.Request.Context(), userID)
	if err != nil {
		h.respondLoyaltyError(c, err)
		return
	}

	RespondOK(c, BalanceResponse{
		UserID:  userID.String(),
		Balance: balance,
	})
}

// GetHistory returns a filtered, paginated page of the customer's ledger,
// newest first
func (h *PointsHandler) GetHistory(c *gin.Context) {
	idParam := c.Param("id")
	userID, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Error("Invalid user ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid user ID")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters")
		return
	}

	var params HistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid history parameters", "error", err)
		RespondBadRequest(c, "Invalid history parameters")
		return
	}

	filter, err := buildHistoryFilter(params, pagination)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entries, total, err := h.queries.ListHistory(c.Request.Context(), userID, filter)
	if err != nil {
		h.respondLoyaltyError(c, err)
		return
	}

	history := make([]LedgerEntryResponse, 0, len(entries))
	for _, entry := range entries {
		history = append(history, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, history, pagination.Page, pagination.PerPage, int(total))
}

// respondLoyaltyError maps a loyalty domain error code to an HTTP status.
// Unexpected errors are logged and surfaced as a plain 500.
func (h *PointsHandler) respondLoyaltyError(c *gin.Context, err error) {
	derr, ok := loyalty.AsDomainError(err)
	if !ok {
		h.logger.Error("Unexpected loyalty error", "error", err)
		RespondInternalError(c)
		return
	}

	switch derr.Code() {
	case "CUSTOMER_NOT_FOUND", "ACTOR_NOT_FOUND", "ORDER_NOT_FOUND", "ORDER_OWNER_NOT_FOUND":
		RespondWithError(c, http.StatusNotFound, derr.Code(), derr.Error())
	case "NOT_ELIGIBLE":
		RespondWithError(c, http.StatusForbidden, derr.Code(), derr.Error())
	case "ORDER_NOT_PENDING", "ALREADY_RESERVED":
		RespondWithError(c, http.StatusConflict, derr.Code(), derr.Error())
	case "INVALID_POINTS_AMOUNT":
		RespondWithError(c, http.StatusBadRequest, derr.Code(), derr.Error())
	default:
		h.logger.Error("Loyalty operation failed", "code", derr.Code(), "error", derr)
		RespondWithError(c, http.StatusInternalServerError, derr.Code(), "The loyalty operation could not be completed")
	}
}

// buildHistoryFilter validates and converts query parameters into a ledger
// history filter
func buildHistoryFilter(params HistoryParams, pagination PaginationParams) (points.HistoryFilter, error) {
	filter := points.HistoryFilter{
		Limit:  pagination.PerPage,
		Offset: (pagination.Page - 1) * pagination.PerPage,
	}

	if params.Kinds != "" {
		for _, raw := range strings.Split(params.Kinds, ",") {
			kind := points.EntryKind(strings.ToUpper(strings.TrimSpace(raw)))
			switch kind {
			case points.EntryKindAdd, points.EntryKindUse, points.EntryKindReserve, points.EntryKindRefund:
				filter.Kinds = append(filter.Kinds, kind)
			default:
				return points.HistoryFilter{}, &invalidFilterError{param: "kinds", value: raw}
			}
		}
	}

	if params.From != "" {
		from, err := time.Parse(time.RFC3339, params.From)
		if err != nil {
			return points.HistoryFilter{}, &invalidFilterError{param: "from", value: params.From}
		}
		filter.From = &from
	}

	if params.To != "" {
		to, err := time.Parse(time.RFC3339, params.To)
		if err != nil {
			return points.HistoryFilter{}, &invalidFilterError{param: "to", value: params.To}
		}
		filter.To = &to
	}

	return filter, nil
}

type invalidFilterError struct {
	param string
	value string
}

func (e *invalidFilterError) Error() string {
	return "invalid value for " + e.param + ": " + e.value
}

// mapEntryToResponse maps a ledger entry to a history response DTO
func mapEntryToResponse(entry *points.Entry) LedgerEntryResponse {
	response := LedgerEntryResponse{
		ID:               entry.ID.String(),
		Kind:             string(entry.Kind),
		Amount:           entry.Amount,
		BalanceAfter:     entry.BalanceAfter,
		PercentageAtTime: entry.PercentageAtTime,
		Status:           string(entry.Status),
		OccurredAt:       entry.OccurredAt.Format(time.RFC3339),
	}

	if entry.OrderID != nil {
		response.OrderID = entry.OrderID.String()
	}
	if entry.CancelReason != nil {
		response.CancelReason = string(*entry.CancelReason)
	}
	if entry.CreatedBy != nil {
		response.CreatedBy = entry.CreatedBy.String()
	}

	return response
}
