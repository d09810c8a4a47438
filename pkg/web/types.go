package web

// ExecuteProcessRequest carries the initial context for a process run.
type ExecuteProcessRequest struct {
	UserID   string         `json:"user_id,omitempty"`
	TenantID string         `json:"tenant_id,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}
