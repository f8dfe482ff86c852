package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

// DefaultSessionID is used when a checkpoint does not name a session.
const DefaultSessionID = "unscheduled"

const defaultEventType = "entry"

// TokenMode selects the deployment's token semantics.  Single-use is the
// default; permanent mode never marks tokens used but still enforces expiry.
type TokenMode string

const (
	TokenModeSingleUse TokenMode = "single_use"
	TokenModePermanent TokenMode = "permanent"
)

type TokenValidator struct {
	tokens     store.TokenStore
	attendance store.AttendanceStore
	audit      *AuditLog
	mode       TokenMode
	logger     *log.Logger
}

func NewTokenValidator(tokens store.TokenStore, attendance store.AttendanceStore, audit *AuditLog, mode TokenMode, logger *log.Logger) *TokenValidator {
	if mode == "" {
		mode = TokenModeSingleUse
	}
	return &TokenValidator{
		tokens:     tokens,
		attendance: attendance,
		audit:      audit,
		mode:       mode,
		logger:     logger,
	}
}

// Validate resolves the presented token and decides entry.  In single-use
// mode the decision is an atomic claim: across any number of concurrent
// calls with the same value, exactly one commits; the rest are declined with
// a reason read from the post-claim snapshot.  Every decision, grant or
// decline, lands in the audit log.
func (v *TokenValidator) Validate(ctx context.Context, req types.ValidateRequest) (types.ValidateResponse, error) {
	now := time.Now().UTC()

	tokenValue := strings.TrimSpace(req.TokenValue)
	if tokenValue == "" {
		return types.ValidateResponse{}, ErrMissingTokenValue
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}
	eventType := strings.TrimSpace(req.EventType)
	if eventType == "" {
		eventType = defaultEventType
	}

	var (
		granted    bool
		reason     string
		identityID string
	)

	if v.mode == TokenModePermanent {
		rec, err := v.tokens.FindByValue(ctx, tokenValue)
		if err != nil {
			return types.ValidateResponse{}, err
		}
		switch {
		case rec == nil:
			reason = "not_found"
		case rec.Expired(now):
			reason = "expired"
			identityID = rec.IdentityID
		default:
			granted = true
			reason = "ok"
			identityID = rec.IdentityID
		}
	} else {
		outcome, err := v.tokens.Claim(ctx, tokenValue, now)
		if err != nil {
			return types.ValidateResponse{}, err
		}
		if outcome.Committed {
			granted = true
			reason = "ok"
			identityID = outcome.Snapshot.IdentityID
		} else {
			// Classify from the latest snapshot so racing callers get the
			// accurate post-claim reason.  Expiry dominates single-use.
			switch {
			case outcome.Snapshot == nil:
				reason = "not_found"
			case outcome.Snapshot.Expired(now):
				reason = "expired"
				identityID = outcome.Snapshot.IdentityID
			default:
				reason = "already_used"
				identityID = outcome.Snapshot.IdentityID
			}
		}
	}

	if granted {
		// The claim is committed; attendance and audit are best-effort from
		// here so a trailing write failure cannot turn a grant into an error.
		if err := v.attendance.Append(ctx, store.AttendanceRecord{
			SessionID:  sessionID,
			IdentityID: identityID,
			EventType:  eventType,
			TokenValue: tokenValue,
			CreatedAt:  now,
		}); err != nil {
			v.logger.Printf("attendance append failed (session=%s identity=%s): %v",
				sessionID, identityID, err)
		}
	}

	v.audit.Record(ctx, store.AuditRecord{
		IdentityID: identityID,
		TokenValue: tokenValue,
		Authorized: granted,
		Reason:     reason,
		SessionID:  sessionID,
		CreatedAt:  now,
	})

	return types.ValidateResponse{
		OK:         true,
		Authorized: granted,
		Reason:     reason,
		IdentityID: identityID,
		SessionID:  sessionID,
		ServerTime: now.Format(time.RFC3339Nano),
	}, nil
}

// Verify is the legacy compatibility path: the caller names the identity
// and asks whether the token value matches one of its tokens.  Read-only —
// it never claims anything.
func (v *TokenValidator) Verify(ctx context.Context, req types.VerifyRequest) (types.VerifyResponse, error) {
	identityID := strings.TrimSpace(req.IdentityID)
	if identityID == "" {
		return types.VerifyResponse{}, ErrMissingIdentityID
	}
	tokenValue := strings.TrimSpace(req.TokenValue)
	if tokenValue == "" {
		return types.VerifyResponse{}, ErrMissingTokenValue
	}

	toks, err := v.tokens.FindByIdentity(ctx, identityID)
	if err != nil {
		return types.VerifyResponse{}, err
	}

	reason := "id_not_found"
	authorized := false
	if len(toks) > 0 {
		reason = "token_mismatch"
		for _, tok := range toks {
			if tok.Value == tokenValue {
				authorized = true
				reason = "ok"
				break
			}
		}
	}

	v.audit.Record(ctx, store.AuditRecord{
		IdentityID: identityID,
		TokenValue: tokenValue,
		Authorized: authorized,
		Reason:     reason,
	})

	return types.VerifyResponse{OK: true, Authorized: authorized, Reason: reason}, nil
}
