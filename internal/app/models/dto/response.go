package dto

// APIResponse is the success envelope of every endpoint
type APIResponse struct {
	Success bool         `json:"success" example:"true"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error,omitempty"`
}

// NewSuccessResponse wraps data in the success envelope. A nil data value is kept as JSON null.
func NewSuccessResponse(data interface{}) APIResponse {
	return APIResponse{Success: true, Data: data}
}

// SuccessResponse represents a message-only success payload
type SuccessResponse struct {
	Message string `json:"message"`
}
