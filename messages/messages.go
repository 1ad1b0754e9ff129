package messages

import "github.com/advergate/advergate/storage"

// Error codes
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeAdvertiserNotFound = "ADVERTISER_NOT_FOUND"
	ErrCodeConfigUnavailable  = "CONFIG_UNAVAILABLE"
	ErrCodeCredentialError    = "CREDENTIAL_ERROR"
	ErrCodeUpstreamNLUError   = "UPSTREAM_NLU_ERROR"
	ErrCodeStorageError       = "STORAGE_ERROR"
)

// ChatRequest is one inbound chat turn.
type ChatRequest struct {
	Message        string `json:"message"`
	AdvertiserName string `json:"advertiserName"`
	AdvertiserID   string `json:"advertiserId"`
	SessionID      string `json:"sessionId,omitempty"`
}

// ChatResponse carries the agent's reply back to the end user.
type ChatResponse struct {
	Response string `json:"response"`
}

// UpdatePromptRequest asks for an explicit prompt regeneration.
type UpdatePromptRequest struct {
	AdvertiserID string `json:"advertiserId"`
}

// UpdatePromptResponse returns the freshly synthesized prompt.
type UpdatePromptResponse struct {
	Prompt        string `json:"prompt"`
	MissingFields bool   `json:"missingFields"`
}

// UploadResponse lists where each uploaded file landed.
type UploadResponse struct {
	Message string                 `json:"message"`
	Files   []storage.UploadedFile `json:"files"`
}

// HealthResponse is the health-check body.
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse is the error body for every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// NewErrorResponse creates an error body with a machine-readable code.
func NewErrorResponse(code, message string) *ErrorResponse {
	return &ErrorResponse{Error: message, Code: code}
}
