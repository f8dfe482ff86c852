package types

type StartShiftRequest struct {
	Notes string `json:"notes,omitempty"`
	Force bool   `json:"force,omitempty"`
}

type EndShiftRequest struct {
	ShiftID string `json:"shift_id,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

type ShiftResponse struct {
	OK        bool   `json:"ok"`
	ShiftID   string `json:"shift_id"`
	GuardID   string `json:"guard_id"`
	StartedAt string `json:"started_at"`
	EndedAt   string `json:"ended_at,omitempty"`
	Active    bool   `json:"active"`
	Notes     string `json:"notes,omitempty"`
}
