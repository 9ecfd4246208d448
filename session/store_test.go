package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/payguard/permission"
)

func testUser() User {
	return User{
		ID:            "u-1",
		FirstName:     "Ada",
		LastName:      "Obi",
		Email:         "ada@bank.example",
		Role:          permission.RolePartnerBank,
		Status:        "ACTIVE",
		PartnerBankID: "bankX",
	}
}

type failingPersister struct {
	MemoryPersister
	failSave   bool
	failDelete bool
	failLoad   bool
}

func (f *failingPersister) Save(ctx context.Context, data []byte) error {
	if f.failSave {
		return errors.New("disk full")
	}
	return f.MemoryPersister.Save(ctx, data)
}

func (f *failingPersister) Delete(ctx context.Context) error {
	if f.failDelete {
		return errors.New("read-only")
	}
	return f.MemoryPersister.Delete(ctx)
}

func (f *failingPersister) Load(ctx context.Context) ([]byte, error) {
	if f.failLoad {
		return nil, errors.New("io error")
	}
	return f.MemoryPersister.Load(ctx)
}

type fixedChecker struct{ expired bool }

func (c fixedChecker) Expired(string, time.Time) bool { return c.expired }

func TestSetThenGetRoundTrip(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()
	u := testUser()

	if err := store.Set(ctx, u, "abc", "bankX"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := store.Get()
	want := Session{User: u, Token: "abc", TenantScope: "bankX"}
	if got != want {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
	}
	if !got.Authenticated() || got.Role() != permission.RolePartnerBank {
		t.Fatalf("expected authenticated partner bank session, got %+v", got)
	}
}

func TestSetRejectsPartialSessions(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if err := store.Set(ctx, testUser(), "", ""); !errors.Is(err, ErrMissingToken) || !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if err := store.Set(ctx, User{}, "abc", ""); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected missing user error, got %v", err)
	}
	noRole := testUser()
	noRole.Role = permission.RoleNone
	if err := store.Set(ctx, noRole, "abc", ""); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected invalid role error, got %v", err)
	}
	if !store.Get().IsEmpty() {
		t.Fatalf("rejected Set must not change the session, got %+v", store.Get())
	}
}

func TestSetPersistFailureKeepsPreviousSession(t *testing.T) {
	p := &failingPersister{}
	store := NewStore(p)
	ctx := context.Background()

	if err := store.Set(ctx, testUser(), "first", ""); err != nil {
		t.Fatalf("first set: %v", err)
	}

	p.failSave = true
	other := testUser()
	other.ID = "u-2"
	err := store.Set(ctx, other, "second", "")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if got := store.Get(); got.Token != "first" || got.User.ID != "u-1" {
		t.Fatalf("expected previous session to survive, got %+v", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	p := NewMemoryPersister()
	store := NewStore(p)
	ctx := context.Background()

	if err := store.Set(ctx, testUser(), "abc", "bankX"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("first clear: %v", err)
	}
	once := store.Get()
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	twice := store.Get()

	if once != twice || !twice.IsEmpty() {
		t.Fatalf("expected identical empty sessions, got %+v and %+v", once, twice)
	}
	if _, err := p.Load(ctx); !errors.Is(err, ErrNoPersistedSession) {
		t.Fatalf("expected storage wiped, got %v", err)
	}
}

func TestClearEmptiesMemoryEvenWhenStorageFails(t *testing.T) {
	p := &failingPersister{}
	store := NewStore(p)
	ctx := context.Background()

	if err := store.Set(ctx, testUser(), "abc", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	p.failDelete = true
	if err := store.Clear(ctx); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if !store.Get().IsEmpty() {
		t.Fatalf("expected empty session after failed clear, got %+v", store.Get())
	}
}

func TestRevokeOnlyClearsMatchingToken(t *testing.T) {
	p := NewMemoryPersister()
	store := NewStore(p)
	ctx := context.Background()
	if err := store.Set(ctx, testUser(), "new-token", "bankX"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	prev, cleared, err := store.Revoke(ctx, "old-token")
	if err != nil || cleared {
		t.Fatalf("stale token must not clear, got cleared=%v err=%v", cleared, err)
	}
	if prev.Token != "new-token" || !store.Get().Authenticated() {
		t.Fatalf("session must survive a stale revoke, got %+v", store.Get())
	}
	if _, err := p.Load(ctx); err != nil {
		t.Fatalf("persisted record must survive a stale revoke: %v", err)
	}

	prev, cleared, err = store.Revoke(ctx, "new-token")
	if err != nil || !cleared {
		t.Fatalf("matching token must clear, got cleared=%v err=%v", cleared, err)
	}
	if prev.Token != "new-token" || !store.Get().IsEmpty() {
		t.Fatalf("unexpected state after revoke: prev=%+v now=%+v", prev, store.Get())
	}
	if _, err := p.Load(ctx); !errors.Is(err, ErrNoPersistedSession) {
		t.Fatalf("expected persisted record removed, got %v", err)
	}
}

func TestRevokeReportsStorageFailure(t *testing.T) {
	p := &failingPersister{}
	store := NewStore(p)
	ctx := context.Background()
	if err := store.Set(ctx, testUser(), "tok", ""); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	p.failDelete = true

	_, cleared, err := store.Revoke(ctx, "tok")
	if !cleared || !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected cleared with ErrPersistence, got cleared=%v err=%v", cleared, err)
	}
	if !store.Get().IsEmpty() {
		t.Fatal("memory must be cleared even when storage fails")
	}
}

func TestRestoreLoadsCompleteRecord(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()

	writer := NewStore(p)
	if err := writer.Set(ctx, testUser(), "abc", "bankX"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reader := NewStore(p)
	if out := reader.Restore(ctx); out != RestoreOK {
		t.Fatalf("expected RestoreOK, got %s", out)
	}
	if got := reader.Get(); got != writer.Get() {
		t.Fatalf("restored session differs:\n got %+v\nwant %+v", got, writer.Get())
	}
}

func TestRestoreFailsClosedOnPartialData(t *testing.T) {
	cases := map[string]string{
		"token only":       `{"token":"abc"}`,
		"user only":        `{"user":{"id":"u-1","role":"ADMIN"}}`,
		"empty user id":    `{"token":"abc","user":{"id":"","role":"ADMIN"}}`,
		"missing role":     `{"token":"abc","user":{"id":"u-1"}}`,
		"unknown role":     `{"token":"abc","user":{"id":"u-1","role":"ROOT"}}`,
		"not json":         `abc`,
		"future version":   `{"v":9,"token":"abc","user":{"id":"u-1","role":"ADMIN"}}`,
		"null user":        `{"token":"abc","user":null}`,
		"wrong token type": `{"token":42,"user":{"id":"u-1","role":"ADMIN"}}`,
	}

	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewMemoryPersister()
			ctx := context.Background()
			_ = p.Save(ctx, []byte(raw))

			store := NewStore(p)
			if out := store.Restore(ctx); out != RestoreInvalid {
				t.Fatalf("expected RestoreInvalid, got %s", out)
			}
			if !store.Get().IsEmpty() {
				t.Fatalf("expected empty session, got %+v", store.Get())
			}
			if _, err := p.Load(ctx); !errors.Is(err, ErrNoPersistedSession) {
				t.Fatalf("expected invalid record to be wiped, got %v", err)
			}
		})
	}
}

func TestRestoreAcceptsLegacyUnversionedRecord(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	_ = p.Save(ctx, []byte(`{"token":"abc","user":{"id":"u-1","role":"MERCHANT","merchantId":"m-9"}}`))

	store := NewStore(p)
	if out := store.Restore(ctx); out != RestoreOK {
		t.Fatalf("expected RestoreOK, got %s", out)
	}
	if got := store.Get(); got.User.MerchantID != "m-9" || got.Role() != permission.RoleMerchant {
		t.Fatalf("unexpected restored session %+v", got)
	}
}

func TestRestoreDiscardsExpiredToken(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	if err := NewStore(p).Set(ctx, testUser(), "abc", ""); err != nil {
		t.Fatalf("set: %v", err)
	}

	store := NewStore(p, WithTokenChecker(fixedChecker{expired: true}))
	if out := store.Restore(ctx); out != RestoreExpired {
		t.Fatalf("expected RestoreExpired, got %s", out)
	}
	if !store.Get().IsEmpty() {
		t.Fatalf("expected empty session")
	}
}

func TestRestoreWithEmptyOrBrokenStorage(t *testing.T) {
	ctx := context.Background()

	store := NewStore(NewMemoryPersister())
	if out := store.Restore(ctx); out != RestoreEmpty {
		t.Fatalf("expected RestoreEmpty, got %s", out)
	}

	broken := &failingPersister{failLoad: true}
	store = NewStore(broken)
	if out := store.Restore(ctx); out != RestoreUnavailable {
		t.Fatalf("expected RestoreUnavailable, got %s", out)
	}
	if !store.Get().IsEmpty() {
		t.Fatalf("expected empty session")
	}
}

func TestRestoreReplacesExistingMemoryState(t *testing.T) {
	p := NewMemoryPersister()
	ctx := context.Background()
	store := NewStore(p)
	if err := store.Set(ctx, testUser(), "abc", ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	_ = p.Delete(ctx)

	if out := store.Restore(ctx); out != RestoreEmpty {
		t.Fatalf("expected RestoreEmpty, got %s", out)
	}
	if !store.Get().IsEmpty() {
		t.Fatalf("restore must not keep stale memory state")
	}
}

func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if i%2 == 0 {
					_ = store.Set(ctx, testUser(), "abc", "bankX")
				} else {
					_ = store.Clear(ctx)
				}
			}
		}(i)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				s := store.Get()
				if (s.Token == "") != s.User.IsZero() {
					t.Errorf("torn snapshot: %+v", s)
					return
				}
			}
		}()
	}
	wg.Wait()
}
