package types

type HistoryEntry struct {
	EntryID     string `json:"entry_id"`
	GuardID     string `json:"guard_id,omitempty"`
	IdentityID  string `json:"identity_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	TokenValue  string `json:"token_value,omitempty"`
	Authorized  bool   `json:"authorized"`
	Reason      string `json:"reason"`
	SessionID   string `json:"session_id,omitempty"`
	OverrideID  string `json:"override_id,omitempty"`
	Timestamp   string `json:"timestamp"`
}

type HistoryResponse struct {
	OK      bool           `json:"ok"`
	Entries []HistoryEntry `json:"entries"`
}
