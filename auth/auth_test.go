package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	m.Run()
}

// ─────────────────────────────────────────────────────────────────────────────
// Test fixture
// ─────────────────────────────────────────────────────────────────────────────

type memoryUsers struct {
	byID    map[uint]*models.User
	nextID  uint
	findErr error
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{byID: map[uint]*models.User{}, nextID: 1}
}

func (s *memoryUsers) Create(_ context.Context, name, email, passwordHash string) (*models.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return nil, errs.NewDuplicateEmailError(errs.ErrUniqueConstraintViolation)
		}
	}
	role := models.RoleUser
	if len(s.byID) == 0 {
		role = models.RoleAdmin
	}
	u := &models.User{ID: s.nextID, Name: name, Email: email, PasswordHash: passwordHash, Role: role}
	s.byID[u.ID] = u
	s.nextID++
	return u, nil
}

func (s *memoryUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range s.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (s *memoryUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.byID[id], nil
}

func newTestGateway(t *testing.T) (*Gateway, *memoryUsers) {
	t.Helper()
	users := newMemoryUsers()
	return NewGateway(users, NewSessionManager("test-secret", time.Hour, false)), users
}

// requestWithCookies replays the cookies set on rec into a new request.
func requestWithCookies(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

// ─────────────────────────────────────────────────────────────────────────────
// Passwords
// ─────────────────────────────────────────────────────────────────────────────

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "pw1" || !strings.HasPrefix(hash, "$2") {
		t.Fatalf("password stored in the clear: %q", hash)
	}
	if !CheckPassword(hash, "pw1") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "pw2") {
		t.Fatal("wrong password accepted")
	}

	again, _ := HashPassword("pw1")
	if again == hash {
		t.Fatal("hashes should be salted")
	}
}

func TestHashPasswordTooLong(t *testing.T) {
	_, err := HashPassword(strings.Repeat("x", 80))
	if !errs.IsInvalidFieldError(err) {
		t.Fatalf("expected invalid field error, got %v", err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────────────────────────────────────

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, true)

	rec := httptest.NewRecorder()
	if err := m.Establish(rec, 7); err != nil {
		t.Fatalf("establish: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || !cookies[0].HttpOnly || !cookies[0].Secure {
		t.Fatalf("unexpected session cookie: %+v", cookies)
	}

	id, ok, err := m.FromRequest(requestWithCookies(rec))
	if err != nil || !ok || id != 7 {
		t.Fatalf("FromRequest = (%d, %v, %v), want (7, true, nil)", id, ok, err)
	}
}

func TestSessionRejectsForeignAndExpiredTokens(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, false)

	forged, err := NewSessionManager("other-secret", time.Hour, false).Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(forged); !errs.IsInvalidSessionError(err) {
		t.Fatalf("token signed with another key accepted: %v", err)
	}

	token, err := m.Issue(1)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := m.Parse(token); !errs.IsInvalidSessionError(err) {
		t.Fatalf("expired token accepted: %v", err)
	}
}

func TestSessionDestroy(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, false)
	rec := httptest.NewRecorder()
	m.Destroy(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 || cookies[0].Value != "" {
		t.Fatalf("session cookie not expired: %+v", cookies)
	}

	_, ok, err := m.FromRequest(httptest.NewRequest(http.MethodGet, "/", nil))
	if ok || err != nil {
		t.Fatalf("no cookie should be anonymous, got ok=%v err=%v", ok, err)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Gateway
// ─────────────────────────────────────────────────────────────────────────────

func TestGatewayRegisterEstablishesSession(t *testing.T) {
	g, users := newTestGateway(t)
	ctx := context.Background()

	rec := httptest.NewRecorder()
	user, err := g.Register(ctx, rec, "alice", "alice@example.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.PasswordHash == "pw1" {
		t.Fatal("password stored in the clear")
	}
	if len(users.byID) != 1 {
		t.Fatalf("expected one user row, got %d", len(users.byID))
	}

	identity, err := g.CurrentIdentity(ctx, requestWithCookies(rec))
	if err != nil || identity == nil || identity.ID != user.ID {
		t.Fatalf("CurrentIdentity = (%v, %v), want alice", identity, err)
	}
}

func TestGatewayRegisterDuplicate(t *testing.T) {
	g, users := newTestGateway(t)
	ctx := context.Background()

	if _, err := g.Register(ctx, httptest.NewRecorder(), "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	rec := httptest.NewRecorder()
	_, err := g.Register(ctx, rec, "alice2", "alice@example.com", "pw2")
	if !errs.IsDuplicateEmail(err) {
		t.Fatalf("expected duplicate email, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed registration must not establish a session")
	}
	if len(users.byID) != 1 {
		t.Fatalf("expected one user row, got %d", len(users.byID))
	}
}

func TestGatewayLoginMismatchIsUndifferentiated(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	if _, err := g.Register(ctx, httptest.NewRecorder(), "alice", "alice@example.com", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, wrongPassword := g.Login(ctx, httptest.NewRecorder(), "alice@example.com", "nope")
	_, unknownEmail := g.Login(ctx, httptest.NewRecorder(), "ghost@example.com", "pw1")

	if !errs.IsInvalidCredentialsError(wrongPassword) || !errs.IsInvalidCredentialsError(unknownEmail) {
		t.Fatalf("expected invalid credentials, got %v and %v", wrongPassword, unknownEmail)
	}
	if wrongPassword.Error() != unknownEmail.Error() {
		t.Fatalf("messages differ: %q vs %q", wrongPassword, unknownEmail)
	}

	rec := httptest.NewRecorder()
	user, err := g.Login(ctx, rec, "alice@example.com", "pw1")
	if err != nil || user.Name != "alice" {
		t.Fatalf("login: %v", err)
	}
	if len(rec.Result().Cookies()) != 1 {
		t.Fatal("login should establish a session")
	}
}

func TestGatewayCurrentIdentity(t *testing.T) {
	g, users := newTestGateway(t)
	ctx := context.Background()

	// No cookie and an unverifiable cookie are both anonymous.
	identity, err := g.CurrentIdentity(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	if identity != nil || err != nil {
		t.Fatalf("anonymous = (%v, %v)", identity, err)
	}
	bad := httptest.NewRequest(http.MethodGet, "/", nil)
	bad.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "garbage"})
	identity, err = g.CurrentIdentity(ctx, bad)
	if identity != nil || err != nil {
		t.Fatalf("garbage cookie = (%v, %v)", identity, err)
	}

	// A valid session whose user is gone is forbidden, not anonymous.
	rec := httptest.NewRecorder()
	user, err := g.Register(ctx, rec, "alice", "alice@example.com", "pw1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	delete(users.byID, user.ID)
	_, err = g.CurrentIdentity(ctx, requestWithCookies(rec))
	if !errs.IsForbidden(err) {
		t.Fatalf("expected forbidden for a missing user, got %v", err)
	}

	// So is a store failure.
	users.findErr = errors.New("db down")
	_, err = g.CurrentIdentity(ctx, requestWithCookies(rec))
	if !errs.IsForbidden(err) {
		t.Fatalf("expected forbidden on store failure, got %v", err)
	}
}

func TestGatewayGates(t *testing.T) {
	g, _ := newTestGateway(t)
	ctx := context.Background()

	admin, _ := g.Register(ctx, httptest.NewRecorder(), "alice", "alice@example.com", "pw1")
	regular, _ := g.Register(ctx, httptest.NewRecorder(), "bob", "bob@example.com", "pw2")

	if err := g.RequireAdmin(admin); err != nil {
		t.Fatalf("admin refused: %v", err)
	}
	if err := g.RequireAdmin(regular); !errs.IsForbidden(err) {
		t.Fatalf("regular user not forbidden: %v", err)
	}
	if err := g.RequireAdmin(nil); !errs.IsForbidden(err) {
		t.Fatalf("anonymous not forbidden: %v", err)
	}

	if err := g.RequireAuthenticated(regular); err != nil {
		t.Fatalf("authenticated user refused: %v", err)
	}
	err := g.RequireAuthenticated(nil)
	if !errs.IsLoginRequiredError(err) || errs.StatusOf(err) != http.StatusSeeOther {
		t.Fatalf("anonymous should be sent to login, got %v", err)
	}
}

func TestGatewayLogout(t *testing.T) {
	g, _ := newTestGateway(t)
	rec := httptest.NewRecorder()
	g.Logout(rec)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Fatalf("logout did not expire the session: %+v", cookies)
	}
}
