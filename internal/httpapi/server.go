package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

type Dependencies struct {
	Logger    *log.Logger
	Addr      string
	Validator *service.TokenValidator
	Shifts    *service.ShiftManager
	Overrides *service.OverrideAuthorizer
	Guards    *service.GuardVerifier
	Audit     *service.AuditLog
}

type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	mux        *http.ServeMux
	validator  *service.TokenValidator
	shifts     *service.ShiftManager
	overrides  *service.OverrideAuthorizer
	guards     *service.GuardVerifier
	audit      *service.AuditLog
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()

	s := &Server{
		logger:    d.Logger,
		mux:       mux,
		validator: d.Validator,
		shifts:    d.Shifts,
		overrides: d.Overrides,
		guards:    d.Guards,
		audit:     d.Audit,
	}

	mux.HandleFunc("POST /v1/validate", s.handleValidate)
	mux.HandleFunc("POST /v1/verify", s.handleVerify)
	mux.HandleFunc("POST /v1/guard/login", s.handleGuardLogin)
	mux.HandleFunc("POST /v1/shifts/start", requireGuard(d.Guards, s.handleStartShift))
	mux.HandleFunc("POST /v1/shifts/end", requireGuard(d.Guards, s.handleEndShift))
	mux.HandleFunc("POST /v1/overrides", requireGuard(d.Guards, s.handleOverride))
	mux.HandleFunc("GET /v1/history", requireGuard(d.Guards, s.handleHistory))

	handler := loggingMiddleware(d.Logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req types.ValidateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.validator.Validate(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrMissingTokenValue) {
			writeError(w, http.StatusBadRequest, "missing_input", err.Error())
			return
		}
		s.logger.Printf("validate error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req types.VerifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := s.validator.Verify(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingIdentityID),
			errors.Is(err, service.ErrMissingTokenValue):
			writeError(w, http.StatusBadRequest, "missing_input", err.Error())
			return
		default:
			s.logger.Printf("verify error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGuardLogin(w http.ResponseWriter, r *http.Request) {
	var req types.GuardLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	signed, guard, expiresAt, err := s.guards.Authenticate(r.Context(), req.GuardID, req.Secret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingGuardID):
			writeError(w, http.StatusBadRequest, "missing_input", err.Error())
			return
		case errors.Is(err, service.ErrBadCredentials):
			writeError(w, http.StatusUnauthorized, "unauthorized", "unknown guard or wrong secret")
			return
		case errors.Is(err, service.ErrGuardMisconfigured):
			s.logger.Printf("guard login misconfiguration: %v", err)
			writeError(w, http.StatusInternalServerError, "misconfigured", "guard credential not provisioned")
			return
		default:
			s.logger.Printf("guard login error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, types.GuardLoginResponse{
		OK:          true,
		Token:       signed,
		GuardID:     guard.ID,
		DisplayName: guard.DisplayName,
		ExpiresAt:   expiresAt.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleStartShift(w http.ResponseWriter, r *http.Request) {
	claims := guardClaims(r)

	var req types.StartShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shift, err := s.shifts.StartShift(r.Context(), claims.GuardID, req.Notes, req.Force)
	if err != nil {
		var conflict *service.ShiftConflictError
		switch {
		case errors.As(err, &conflict):
			writeJSON(w, http.StatusConflict, shiftResponse(&conflict.Existing, false))
			return
		case errors.Is(err, service.ErrMissingGuardID):
			writeError(w, http.StatusBadRequest, "missing_input", err.Error())
			return
		default:
			s.logger.Printf("start shift error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, shiftResponse(shift, true))
}

func (s *Server) handleEndShift(w http.ResponseWriter, r *http.Request) {
	claims := guardClaims(r)

	var req types.EndShiftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	shift, err := s.shifts.EndShift(r.Context(), claims.GuardID, req.ShiftID, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShiftNotFound):
			writeError(w, http.StatusNotFound, "not_found", err.Error())
			return
		case errors.Is(err, service.ErrShiftOwnership):
			writeError(w, http.StatusForbidden, "unauthorized", err.Error())
			return
		case errors.Is(err, service.ErrShiftAlreadyEnded):
			writeError(w, http.StatusConflict, "conflict", err.Error())
			return
		default:
			s.logger.Printf("end shift error: %v", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
	}

	writeJSON(w, http.StatusOK, shiftResponse(shift, true))
}

func (s *Server) handleOverride(w http.ResponseWriter, r *http.Request) {
	claims := guardClaims(r)

	var req types.OverrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	rec, err := s.overrides.Authorize(r.Context(), claims.GuardID, req)
	if err != nil {
		if errors.Is(err, service.ErrMissingSubject) {
			writeError(w, http.StatusBadRequest, "missing_input", err.Error())
			return
		}
		s.logger.Printf("override error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	writeJSON(w, http.StatusOK, types.OverrideResponse{
		OK:        true,
		AuthID:    rec.ID,
		Timestamp: rec.CreatedAt.Format(time.RFC3339Nano),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "missing_input", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.audit.History(r.Context(), limit)
	if err != nil {
		s.logger.Printf("history error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
		return
	}

	resp := types.HistoryResponse{OK: true, Entries: make([]types.HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, types.HistoryEntry{
			EntryID:     e.ID,
			GuardID:     e.GuardID,
			IdentityID:  e.IdentityID,
			DisplayName: e.DisplayName,
			TokenValue:  e.TokenValue,
			Authorized:  e.Authorized,
			Reason:      e.Reason,
			SessionID:   e.SessionID,
			OverrideID:  e.OverrideID,
			Timestamp:   e.CreatedAt.Format(time.RFC3339Nano),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func shiftResponse(rec *store.ShiftRecord, ok bool) types.ShiftResponse {
	resp := types.ShiftResponse{
		OK:        ok,
		ShiftID:   rec.ID,
		GuardID:   rec.GuardID,
		StartedAt: rec.StartedAt.Format(time.RFC3339Nano),
		Active:    rec.Active,
		Notes:     rec.Notes,
	}
	if rec.EndedAt != nil {
		resp.EndedAt = rec.EndedAt.Format(time.RFC3339Nano)
	}
	return resp
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
		return false
	}
	return true
}

type errorBody struct {
	OK      bool   `json:"ok"`
	Code    string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{OK: false, Code: code, Message: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
