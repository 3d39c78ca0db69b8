// Package auth verifies credentials, manages session identity and gates the
// actions reserved for the admin account.
package auth

import (
	"context"
	"net/http"

	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UserStore is the persistence the gateway needs. *database.UserRepo satisfies it.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

type Gateway struct {
	users    UserStore
	sessions *SessionManager
	logger   zerolog.Logger
}

func NewGateway(users UserStore, sessions *SessionManager) *Gateway {
	return &Gateway{
		users:    users,
		sessions: sessions,
		logger:   log.With().Str("component", "authGateway").Logger(),
	}
}

// Register creates an account and signs the new user in.
func (g *Gateway) Register(ctx context.Context, w http.ResponseWriter, name, email, password string) (*models.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := g.users.Create(ctx, name, email, hash)
	if err != nil {
		return nil, err
	}

	if err := g.sessions.Establish(w, user.ID); err != nil {
		return nil, err
	}
	g.logger.Info().Uint("userID", user.ID).Str("role", string(user.Role)).Msg("User registered")
	return user, nil
}

// Login verifies email and password and signs the user in. Unknown emails
// and wrong passwords fail with the same error.
func (g *Gateway) Login(ctx context.Context, w http.ResponseWriter, email, password string) (*models.User, error) {
	user, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		compareDummy(password)
		return nil, errs.NewInvalidCredentialsError()
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, errs.NewInvalidCredentialsError()
	}

	if err := g.sessions.Establish(w, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout ends the caller's session.
func (g *Gateway) Logout(w http.ResponseWriter) {
	g.sessions.Destroy(w)
}

// CurrentIdentity resolves the request's session to a user. It returns
// (nil, nil) for anonymous requests, including ones with an unverifiable
// token. A verified session whose user cannot be loaded is refused with
// errs.ErrForbidden rather than downgraded to anonymous.
func (g *Gateway) CurrentIdentity(ctx context.Context, r *http.Request) (*models.User, error) {
	userID, ok, err := g.sessions.FromRequest(r)
	if err != nil {
		g.logger.Debug().Err(err).Msg("Ignoring invalid session cookie")
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	user, err := g.users.FindByID(ctx, userID)
	if err != nil {
		g.logger.Error().Err(err).Uint("userID", userID).Msg("Failed to resolve session user")
		return nil, errs.NewForbiddenError()
	}
	if user == nil {
		g.logger.Warn().Uint("userID", userID).Msg("Session references a missing user")
		return nil, errs.NewForbiddenError()
	}
	return user, nil
}

// IsAdmin reports whether identity may manage posts.
func (g *Gateway) IsAdmin(identity *models.User) bool {
	return identity.IsAdmin()
}

// RequireAdmin refuses anyone but the admin with errs.ErrForbidden.
func (g *Gateway) RequireAdmin(identity *models.User) error {
	if !g.IsAdmin(identity) {
		return errs.NewForbiddenError()
	}
	return nil
}

// RequireAuthenticated refuses anonymous callers with errs.ErrLoginRequired,
// which handlers answer with a redirect to the login page.
func (g *Gateway) RequireAuthenticated(identity *models.User) error {
	if identity == nil {
		return errs.NewLoginRequiredError()
	}
	return nil
}
