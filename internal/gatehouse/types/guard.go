package types

type GuardLoginRequest struct {
	GuardID string `json:"guard_id"`
	Secret  string `json:"secret"`
}

type GuardLoginResponse struct {
	OK          bool   `json:"ok"`
	Token       string `json:"token"`
	GuardID     string `json:"guard_id"`
	DisplayName string `json:"display_name,omitempty"`
	ExpiresAt   string `json:"expires_at"`
}
