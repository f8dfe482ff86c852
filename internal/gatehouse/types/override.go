package types

type OverrideRequest struct {
	IdentityID string `json:"identity_id,omitempty"`
	TokenValue string `json:"token_value,omitempty"`
	SessionID  string `json:"session_id,omitempty"`
	Note       string `json:"note,omitempty"`
	ShiftID    string `json:"shift_id,omitempty"`
}

type OverrideResponse struct {
	OK        bool   `json:"ok"`
	AuthID    string `json:"auth_id"`
	Timestamp string `json:"timestamp"`
}
