package api

// Stable error codes surfaced to calling layers. Handlers translate package
// sentinel errors into one of these plus an HTTP status.
const (
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeForbidden         = "FORBIDDEN"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeAlreadyProcessed  = "ALREADY_PROCESSED"
	CodeInternal          = "INTERNAL"
)

type ErrorResponse struct {
	Error string `json:"error" example:"something went wrong"`
	Code  string `json:"code,omitempty" example:"CONFLICT"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
