package flows

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/tenantauth/jwt"
)

type fakeRegistry struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	failOn    string
	consumeFn func(token string) (bool, error)
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{revoked: map[string]time.Time{}}
}

var errBackend = errors.New("backend down")

func (r *fakeRegistry) Revoke(_ context.Context, token string, exp time.Time) error {
	if r.failOn == "revoke" {
		return errBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[token] = exp
	return nil
}

func (r *fakeRegistry) IsRevoked(_ context.Context, token string) (bool, error) {
	if r.failOn == "lookup" {
		return false, errBackend
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.revoked[token]
	return ok, nil
}

func (r *fakeRegistry) Consume(_ context.Context, token string, exp time.Time) (bool, error) {
	if r.consumeFn != nil {
		return r.consumeFn(token)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.revoked[token]; ok {
		return false, nil
	}
	r.revoked[token] = exp
	return true, nil
}

type fixture struct {
	now    time.Time
	codec  *jwt.Codec
	issuer *jwt.Issuer
	reg    *fakeRegistry
	users  map[string]User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		now:   time.Unix(1700000000, 0),
		reg:   newFakeRegistry(),
		users: map[string]User{},
	}
	codec, err := jwt.NewCodec(jwt.CodecConfig{
		Secret: []byte("flow-test-secret"),
		Now:    func() time.Time { return f.now },
	})
	if err != nil {
		t.Fatalf("NewCodec error: %v", err)
	}
	issuer, err := jwt.NewIssuer(codec, jwt.IssuerConfig{})
	if err != nil {
		t.Fatalf("NewIssuer error: %v", err)
	}
	f.codec, f.issuer = codec, issuer
	f.users["u1"] = User{UserID: "u1", TenantID: "t1", Username: "alice", PasswordHash: "pw:Passw0rd!", Role: "admin", Active: true}
	return f
}

func (f *fixture) validateDeps() ValidateDeps {
	return ValidateDeps{Decode: f.codec.Decode, Registry: f.reg}
}

func (f *fixture) issue(userID, tenantID, username, role string) (jwt.Pair, error) {
	return f.issuer.IssuePair(userID, tenantID, username, role, f.now)
}

func (f *fixture) refreshDeps() RefreshDeps {
	return RefreshDeps{
		Validate: f.validateDeps(),
		LoadUser: func(_ context.Context, id string) (User, bool, error) {
			u, ok := f.users[id]
			return u, ok, nil
		},
		IssuePair: f.issue,
		Registry:  f.reg,
	}
}

func TestRunValidateOrdering(t *testing.T) {
	f := newFixture(t)
	pair, err := f.issue("u1", "t1", "alice", "admin")
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	res := RunValidate(context.Background(), pair.AccessToken, jwt.KindAccess, f.validateDeps())
	if res.Failure != ValidateFailureNone || res.Claims.Role != "admin" {
		t.Fatalf("unexpected access result %+v", res)
	}

	res = RunValidate(context.Background(), pair.RefreshToken, jwt.KindAccess, f.validateDeps())
	if res.Failure != ValidateFailureWrongKind {
		t.Fatalf("expected wrong kind, got %v", res.Failure)
	}

	_ = f.reg.Revoke(context.Background(), pair.RefreshToken, time.Time{})
	res = RunValidate(context.Background(), pair.RefreshToken, jwt.KindRefresh, f.validateDeps())
	if res.Failure != ValidateFailureRevoked {
		t.Fatalf("expected revoked, got %v", res.Failure)
	}

	f.now = f.now.Add(8 * 24 * time.Hour)
	res = RunValidate(context.Background(), pair.RefreshToken, jwt.KindRefresh, f.validateDeps())
	if res.Failure != ValidateFailureDecode || !errors.Is(res.Err, jwt.ErrExpired) {
		t.Fatalf("expected expiry to win over revocation, got %v / %v", res.Failure, res.Err)
	}
}

func TestRunValidateRegistryError(t *testing.T) {
	f := newFixture(t)
	pair, _ := f.issue("u1", "t1", "alice", "admin")
	f.reg.failOn = "lookup"

	res := RunValidate(context.Background(), pair.RefreshToken, jwt.KindRefresh, f.validateDeps())
	if res.Failure != ValidateFailureRegistry || !errors.Is(res.Err, errBackend) {
		t.Fatalf("expected registry failure, got %+v", res)
	}

	res = RunValidate(context.Background(), pair.AccessToken, jwt.KindAccess, f.validateDeps())
	if res.Failure != ValidateFailureNone {
		t.Fatalf("expected access validation to skip the registry, got %v", res.Failure)
	}
}

func TestRunRefreshRotates(t *testing.T) {
	f := newFixture(t)
	pair, _ := f.issue("u1", "t1", "alice", "user")
	f.users["u1"] = User{UserID: "u1", TenantID: "t1", Username: "alice", Role: "admin", Active: true}

	res := RunRefresh(context.Background(), pair.RefreshToken, f.refreshDeps())
	if res.Failure != RefreshFailureNone {
		t.Fatalf("expected success, got %+v", res)
	}
	claims, err := f.codec.Decode(res.Pair.AccessToken)
	if err != nil {
		t.Fatalf("decode new access: %v", err)
	}
	if claims.Role != "admin" {
		t.Fatalf("expected role re-read from the user store, got %q", claims.Role)
	}
	if res.Pair.RefreshToken == pair.RefreshToken {
		t.Fatal("expected a distinct refresh token")
	}

	again := RunRefresh(context.Background(), pair.RefreshToken, f.refreshDeps())
	if again.Failure != RefreshFailureValidate || again.ValidateFailure != ValidateFailureRevoked {
		t.Fatalf("expected reuse to be rejected as revoked, got %+v", again)
	}
}

func TestRunRefreshUserChecks(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want RefreshFailureKind
	}{
		{"missing", nil, RefreshFailureUserMissing},
		{"inactive", &User{UserID: "u1", TenantID: "t1", Role: "user"}, RefreshFailureUserInactive},
		{"moved tenant", &User{UserID: "u1", TenantID: "t2", Role: "user", Active: true}, RefreshFailureUserMissing},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			pair, _ := f.issue("u1", "t1", "alice", "user")
			delete(f.users, "u1")
			if tc.user != nil {
				f.users["u1"] = *tc.user
			}

			res := RunRefresh(context.Background(), pair.RefreshToken, f.refreshDeps())
			if res.Failure != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, res.Failure)
			}
			if revoked, _ := f.reg.IsRevoked(context.Background(), pair.RefreshToken); revoked {
				t.Fatal("expected token to stay unconsumed when the user check fails")
			}
		})
	}
}

func TestRunRefreshLostRace(t *testing.T) {
	f := newFixture(t)
	pair, _ := f.issue("u1", "t1", "alice", "user")
	f.reg.consumeFn = func(string) (bool, error) { return false, nil }

	res := RunRefresh(context.Background(), pair.RefreshToken, f.refreshDeps())
	if res.Failure != RefreshFailureLostRace {
		t.Fatalf("expected lost race, got %v", res.Failure)
	}
	if res.Pair.AccessToken != "" {
		t.Fatal("expected no pair for the losing caller")
	}
}

func TestRunLogin(t *testing.T) {
	f := newFixture(t)
	var dummyChecked bool
	deps := LoginDeps{
		LookupUser: func(_ context.Context, name string) (User, bool, error) {
			for _, u := range f.users {
				if u.Username == name {
					return u, true, nil
				}
			}
			return User{}, false, nil
		},
		VerifyPassword: func(pw, encoded string) bool {
			if encoded == "dummy" {
				dummyChecked = true
			}
			return encoded == "pw:"+pw
		},
		DummyHash: "dummy",
		IssuePair: f.issue,
	}

	res := RunLogin(context.Background(), "alice", "Passw0rd!", deps)
	if res.Failure != LoginFailureNone || res.Pair.AccessToken == "" {
		t.Fatalf("expected success, got %+v", res)
	}

	res = RunLogin(context.Background(), "bob", "Passw0rd!", deps)
	if res.Failure != LoginFailureUnknownUser || !dummyChecked {
		t.Fatalf("expected unknown user with dummy verification, got %+v", res)
	}

	res = RunLogin(context.Background(), "alice", "wrong", deps)
	if res.Failure != LoginFailureBadPassword {
		t.Fatalf("expected bad password, got %v", res.Failure)
	}

	u := f.users["u1"]
	u.Active = false
	f.users["u1"] = u
	res = RunLogin(context.Background(), "alice", "wrong", deps)
	if res.Failure != LoginFailureBadPassword {
		t.Fatalf("expected wrong password on a disabled account to stay bad password, got %v", res.Failure)
	}
	res = RunLogin(context.Background(), "alice", "Passw0rd!", deps)
	if res.Failure != LoginFailureInactive {
		t.Fatalf("expected inactive, got %v", res.Failure)
	}
}

func TestRunLogout(t *testing.T) {
	f := newFixture(t)
	pair, _ := f.issue("u1", "t1", "alice", "user")
	deps := LogoutDeps{Validate: f.validateDeps(), Registry: f.reg}
	ctx := context.Background()

	if res := RunLogout(ctx, "u1", "t1", "", deps); res.Failure != LogoutFailureNone || res.Revoked {
		t.Fatalf("expected no-op logout, got %+v", res)
	}
	if res := RunLogout(ctx, "u2", "t1", pair.RefreshToken, deps); res.Failure != LogoutFailureForeign {
		t.Fatalf("expected foreign token rejection, got %+v", res)
	}
	if res := RunLogout(ctx, "u1", "t1", pair.AccessToken, deps); res.Failure != LogoutFailureValidate {
		t.Fatalf("expected access token to be rejected, got %+v", res)
	}
	if res := RunLogout(ctx, "u1", "t1", pair.RefreshToken, deps); !res.Revoked {
		t.Fatalf("expected revocation, got %+v", res)
	}
	if res := RunLogout(ctx, "u1", "t1", pair.RefreshToken, deps); res.Failure != LogoutFailureNone {
		t.Fatalf("expected repeated logout to succeed, got %+v", res)
	}
}
