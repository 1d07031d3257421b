package handler

// ReservePointsRequest represents a request to apply points to a pending order
type ReservePointsRequest struct {
	Points  int64  `json:"points" binding:"required"`
	ActorID string `json:"actor_id" binding:"required,uuid"`
}

// ReservePointsResponse reports the reservation applied to the order
type ReservePointsResponse struct {
	OrderSlug   string `json:"order_slug"`
	PointsUsed  int64  `json:"points_used"`
	FinalAmount int64  `json:"final_amount"`
}

// BalanceResponse represents a customer's spendable balance in API responses
type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

// LedgerEntryResponse represents a points ledger entry in API responses
type LedgerEntryResponse struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id,omitempty"`
	Kind             string `json:"kind"`
	Amount           int64  `json:"amount"`
	BalanceAfter     int64  `json:"balance_after"`
	PercentageAtTime int    `json:"percentage_at_time,omitempty"`
	Status           string `json:"status"`
	CancelReason     string `json:"cancel_reason,omitempty"`
	CreatedBy        string `json:"created_by,omitempty"`
	OccurredAt       string `json:"occurred_at"`
}

// HistoryParams represents filter parameters for the ledger history endpoint.
// Kinds is a comma separated list of entry kinds (ADD, USE, RESERVE, REFUND).
type HistoryParams struct {
	Kinds string `form:"kinds"`
	From  string `form:"from"`
	To    string `form:"to"`
}

// ActivityResponse represents an archived loyalty activity in API responses
type ActivityResponse struct {
	EntryID      string `json:"entry_id"`
	AccountID    string `json:"account_id"`
	OrderID      string `json:"order_id,omitempty"`
	Kind         string `json:"kind"`
	Amount       int64  `json:"amount"`
	BalanceAfter int64  `json:"balance_after"`
	OccurredAt   string `json:"occurred_at"`
	RecordedAt   string `json:"recorded_at"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
