package domain

type PrepareRequest struct {
	SessionID string
	HubID     int64
}

type PrepareResponse struct {
	Totals TotalsBreakdown
	CartID int64
	HubID  int64
	Token  string
}

type IntentRequest struct {
	SessionID  string
	HubID      int64
	CartID     int64
	OrderToken string
}
