// Package dto provides data transfer objects for admin action responses.
package dto

// ActionReceiptResponse acknowledges an authorized high-risk action. The
// decision is always "allow" here: denied requests never reach the handler.
type ActionReceiptResponse struct {
	Action        string `json:"action"`
	ResourceID    string `json:"resource_id,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
	Decision      string `json:"decision"`
}
