package service_test

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse-project/gatehouse/internal/gatehouse/service"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/store/memory"
	"github.com/gatehouse-project/gatehouse/internal/gatehouse/types"
)

func silentLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

type validatorFixture struct {
	validator  *service.TokenValidator
	tokens     *memory.TokenStore
	attendance *memory.AttendanceStore
	audit      *memory.AuditStore
}

func newValidatorFixture(t *testing.T, mode service.TokenMode) *validatorFixture {
	t.Helper()

	tokens := memory.NewTokenStore()
	attendance := memory.NewAttendanceStore()
	audit := memory.NewAuditStore()
	directory := memory.NewDirectoryStore()
	directory.AddIdentity(store.Identity{ID: "est-001", DisplayName: "Jordan Vale", Role: "student"})

	auditLog := service.NewAuditLog(audit, directory, silentLogger())
	validator := service.NewTokenValidator(tokens, attendance, auditLog, mode, silentLogger())
	return &validatorFixture{
		validator:  validator,
		tokens:     tokens,
		attendance: attendance,
		audit:      audit,
	}
}

func (f *validatorFixture) putToken(t *testing.T, rec store.TokenRecord) {
	t.Helper()
	require.NoError(t, f.tokens.Put(context.Background(), rec))
}

func TestValidate_GrantsAndRecords(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})

	resp, err := f.validator.Validate(context.Background(), types.ValidateRequest{
		TokenValue: "T1",
		SessionID:  "sess-7",
		EventType:  "entry",
	})
	require.NoError(t, err)

	assert.True(t, resp.Authorized)
	assert.Equal(t, "ok", resp.Reason)
	assert.Equal(t, "est-001", resp.IdentityID)
	assert.Equal(t, "sess-7", resp.SessionID)

	marks := f.attendance.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, "sess-7", marks[0].SessionID)
	assert.Equal(t, "est-001", marks[0].IdentityID)
	assert.Equal(t, "entry", marks[0].EventType)
	assert.Equal(t, "T1", marks[0].TokenValue)

	entries := f.audit.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Authorized)
	assert.Equal(t, "ok", entries[0].Reason)
	assert.Equal(t, "Jordan Vale", entries[0].DisplayName, "display name enrichment")
}

func TestValidate_UnknownToken_NotFound(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)

	resp, err := f.validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "nope"})
	require.NoError(t, err)

	assert.False(t, resp.Authorized)
	assert.Equal(t, "not_found", resp.Reason)

	entries := f.audit.Entries()
	require.Len(t, entries, 1, "declines must be recorded")
	assert.False(t, entries[0].Authorized)
	assert.Equal(t, "not_found", entries[0].Reason)
	assert.Empty(t, f.attendance.Marks())
}

func TestValidate_SecondUse_AlreadyUsed(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})
	ctx := context.Background()

	first, err := f.validator.Validate(ctx, types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err)
	require.True(t, first.Authorized)

	second, err := f.validator.Validate(ctx, types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err)
	assert.False(t, second.Authorized)
	assert.Equal(t, "already_used", second.Reason)
	assert.Equal(t, "est-001", second.IdentityID)

	assert.Len(t, f.audit.Entries(), 2)
	assert.Len(t, f.attendance.Marks(), 1)
}

func TestValidate_ExpiredDominatesFirstUse(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	past := time.Now().UTC().Add(-time.Minute)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001", ExpiresAt: &past})

	resp, err := f.validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err)

	assert.False(t, resp.Authorized)
	assert.Equal(t, "expired", resp.Reason, "expiry dominates even on the first attempt")

	rec, err := f.tokens.FindByValue(context.Background(), "T1")
	require.NoError(t, err)
	assert.False(t, rec.Used, "an expired decline must not consume the token")
}

func TestValidate_MissingTokenValue(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)

	_, err := f.validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "  "})
	assert.ErrorIs(t, err, service.ErrMissingTokenValue)
	assert.Empty(t, f.audit.Entries(), "input errors are not decisions")
}

func TestValidate_DefaultsSessionAndEventType(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})

	resp, err := f.validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err)
	assert.Equal(t, service.DefaultSessionID, resp.SessionID)

	marks := f.attendance.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, service.DefaultSessionID, marks[0].SessionID)
	assert.Equal(t, "entry", marks[0].EventType)
}

// Exactly one of N concurrent validations of the same token may win; every
// attempt leaves an audit entry and only the winner marks attendance.
func TestValidate_ConcurrentClaims_ExactlyOneWins(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})

	const callers = 20
	responses := make([]types.ValidateResponse, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			responses[i], errs[i] = f.validator.Validate(context.Background(),
				types.ValidateRequest{TokenValue: "T1", SessionID: "sess-1"})
		}(i)
	}
	wg.Wait()

	granted := 0
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		if responses[i].Authorized {
			granted++
			assert.Equal(t, "est-001", responses[i].IdentityID)
		} else {
			assert.Equal(t, "already_used", responses[i].Reason)
		}
	}

	assert.Equal(t, 1, granted, "exactly one concurrent caller may claim the token")
	assert.Len(t, f.audit.Entries(), callers, "every attempt is audited")
	assert.Len(t, f.attendance.Marks(), 1, "only the winner marks attendance")
}

func TestValidate_PermanentMode_Reusable(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModePermanent)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		resp, err := f.validator.Validate(ctx, types.ValidateRequest{TokenValue: "T1"})
		require.NoError(t, err)
		assert.True(t, resp.Authorized, "permanent tokens stay valid on reuse")
	}

	rec, err := f.tokens.FindByValue(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, rec.Used, "permanent mode never marks tokens used")
	assert.Len(t, f.attendance.Marks(), 3)
}

func TestValidate_PermanentMode_StillExpires(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModePermanent)
	past := time.Now().UTC().Add(-time.Minute)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001", ExpiresAt: &past})

	resp, err := f.validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err)
	assert.False(t, resp.Authorized)
	assert.Equal(t, "expired", resp.Reason)
}

// failingAuditStore refuses every append so tests can show the failure does
// not leak into the validation outcome.
type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, store.AuditRecord) error {
	return errors.New("audit store down")
}

func (failingAuditStore) History(context.Context, int) ([]store.AuditRecord, error) {
	return nil, errors.New("audit store down")
}

func TestValidate_AuditFailureDoesNotMaskGrant(t *testing.T) {
	tokens := memory.NewTokenStore()
	attendance := memory.NewAttendanceStore()
	auditLog := service.NewAuditLog(failingAuditStore{}, memory.NewDirectoryStore(), silentLogger())
	validator := service.NewTokenValidator(tokens, attendance, auditLog,
		service.TokenModeSingleUse, silentLogger())

	require.NoError(t, tokens.Put(context.Background(),
		store.TokenRecord{Value: "T1", IdentityID: "est-001"}))

	resp, err := validator.Validate(context.Background(), types.ValidateRequest{TokenValue: "T1"})
	require.NoError(t, err, "a failed audit write must not fail the validation")
	assert.True(t, resp.Authorized)
	assert.Len(t, attendance.Marks(), 1)
}

// ── Legacy verify path ───────────────────────────────────────────────────────

func TestVerify_Match(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})

	resp, err := f.validator.Verify(context.Background(), types.VerifyRequest{
		IdentityID: "est-001",
		TokenValue: "T1",
	})
	require.NoError(t, err)
	assert.True(t, resp.Authorized)
	assert.Equal(t, "ok", resp.Reason)
}

func TestVerify_Mismatch(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})

	resp, err := f.validator.Verify(context.Background(), types.VerifyRequest{
		IdentityID: "est-001",
		TokenValue: "wrong",
	})
	require.NoError(t, err)
	assert.False(t, resp.Authorized)
	assert.Equal(t, "token_mismatch", resp.Reason)
}

func TestVerify_UnknownIdentity(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)

	resp, err := f.validator.Verify(context.Background(), types.VerifyRequest{
		IdentityID: "est-404",
		TokenValue: "T1",
	})
	require.NoError(t, err)
	assert.False(t, resp.Authorized)
	assert.Equal(t, "id_not_found", resp.Reason)
}

func TestVerify_DoesNotConsumeToken(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	f.putToken(t, store.TokenRecord{Value: "T1", IdentityID: "est-001"})
	ctx := context.Background()

	_, err := f.validator.Verify(ctx, types.VerifyRequest{IdentityID: "est-001", TokenValue: "T1"})
	require.NoError(t, err)

	rec, err := f.tokens.FindByValue(ctx, "T1")
	require.NoError(t, err)
	assert.False(t, rec.Used)
}

func TestVerify_MissingInput(t *testing.T) {
	f := newValidatorFixture(t, service.TokenModeSingleUse)
	ctx := context.Background()

	_, err := f.validator.Verify(ctx, types.VerifyRequest{TokenValue: "T1"})
	assert.ErrorIs(t, err, service.ErrMissingIdentityID)

	_, err = f.validator.Verify(ctx, types.VerifyRequest{IdentityID: "est-001"})
	assert.ErrorIs(t, err, service.ErrMissingTokenValue)
}
