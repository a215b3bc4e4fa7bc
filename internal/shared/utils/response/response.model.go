package response

type StandardApiResponse struct {
	Status     string            `json:"status"`           // "success" or "error"
	StatusCode int               `json:"status_code"`      // HTTP status code
	Message    string            `json:"message"`          // Human-readable message
	Code       string            `json:"code,omitempty"`   // Machine-readable error code
	Data       interface{}       `json:"data,omitempty"`   // Payload for success
	Errors     map[string]string `json:"errors,omitempty"` // Field-level validation errors
	Details    interface{}       `json:"details,omitempty"`
}
