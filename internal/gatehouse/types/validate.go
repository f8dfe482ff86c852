package types

type ValidateRequest struct {
	TokenValue string `json:"token_value"`
	SessionID  string `json:"session_id,omitempty"`
	EventType  string `json:"event_type,omitempty"`
}

type ValidateResponse struct {
	OK         bool   `json:"ok"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"` // ok | not_found | already_used | expired
	IdentityID string `json:"identity_id,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	ServerTime string `json:"server_time"`
}

// VerifyRequest is the legacy compatibility path: the caller already knows
// the identity and only asks whether the token matches.
type VerifyRequest struct {
	IdentityID string `json:"identity_id"`
	TokenValue string `json:"token_value"`
}

type VerifyResponse struct {
	OK         bool   `json:"ok"`
	Authorized bool   `json:"authorized"`
	Reason     string `json:"reason,omitempty"` // ok | id_not_found | token_mismatch
}
