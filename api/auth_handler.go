package api

import (
	"errors"
	"net/http"

	"github.com/rpupo63/blog-backend/auth"
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	gateway   *auth.Gateway
}

func newAuthHandler(gateway *auth.Gateway) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		gateway:   gateway,
	}
}

func registerView() FormView {
	return newFormView("register", "/register", "Join Us!", registerFields)
}

func loginView() FormView {
	return newFormView("login", "/login", "Let Me In!", loginFields)
}

// registerForm describes the registration form
// @Summary Registration form
// @Tags Auth
// @Produce json
// @Success 200 {object} FormView
// @Router /register [get]
func (h authHandler) registerForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := registerView()
		view.Flashes = popFlashes(w, r)
		h.responder.WriteJSON(w, view)
	}
}

// register creates an account and signs the new user in
// @Summary Register
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 303 "Redirect to / with the session cookie set"
// @Failure 400 {object} FormView "Validation failed"
// @Failure 409 {object} FormView "Email already registered"
// @Router /register [post]
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form registerForm
		if err := decodeForm(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := validateForm(&form); fieldErrs != nil {
			h.responder.WriteJSONStatus(w, http.StatusBadRequest, registerView().withErrors(form.values(), fieldErrs))
			return
		}

		user, err := h.gateway.Register(r.Context(), w, form.Name, form.Email, form.Password)
		if err != nil {
			var apiErr *errs.ApiErr
			switch {
			case errs.IsDuplicateEmail(err):
				view := registerView().withErrors(form.values(), nil)
				view.Flashes = []string{flashDuplicateEmail}
				h.responder.WriteJSONStatus(w, http.StatusConflict, view)
			case errs.IsValidation(err) && errors.As(err, &apiErr):
				h.responder.WriteJSONStatus(w, http.StatusBadRequest, registerView().withErrors(form.values(), fieldErrorsOf(apiErr)))
			default:
				h.responder.WriteError(w, wrapDatabaseError("register user", err))
			}
			return
		}

		h.logger.Info().Uint("userID", user.ID).Msg("Registered and signed in")
		h.responder.Redirect(w, r, "/?logged_in=true")
	}
}

// loginForm describes the login form
// @Summary Login form
// @Tags Auth
// @Produce json
// @Success 200 {object} FormView
// @Router /login [get]
func (h authHandler) loginForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := loginView()
		view.Flashes = popFlashes(w, r)
		h.responder.WriteJSON(w, view)
	}
}

// login signs a user in
// @Summary Login
// @Tags Auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 303 "Redirect to / on success, back to /login with a notice on mismatch"
// @Failure 400 {object} FormView "Validation failed"
// @Router /login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form loginForm
		if err := decodeForm(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := validateForm(&form); fieldErrs != nil {
			h.responder.WriteJSONStatus(w, http.StatusBadRequest, loginView().withErrors(form.values(), fieldErrs))
			return
		}

		if _, err := h.gateway.Login(r.Context(), w, form.Email, form.Password); err != nil {
			if errs.IsInvalidCredentialsError(err) {
				setFlash(w, flashLoginMismatch)
				h.responder.Redirect(w, r, "/login")
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("login", err))
			return
		}

		h.responder.Redirect(w, r, "/?logged_in=true")
	}
}

// logout ends the session
// @Summary Logout
// @Tags Auth
// @Success 303 "Redirect to /"
// @Router /logout [get]
func (h authHandler) logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.gateway.Logout(w)
		h.responder.Redirect(w, r, "/?logged_in=false")
	}
}
