package api

import (
	"errors"
	"net/http"

	"github.com/rpupo63/blog-backend/auth"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type commentHandler struct {
	responder   Responder
	logger      zerolog.Logger
	commentRepo *database.CommentRepo
	gateway     *auth.Gateway
}

func newCommentHandler(commentRepo *database.CommentRepo, gateway *auth.Gateway) commentHandler {
	logger := log.With().Str("handlerName", "commentHandler").Logger()

	return commentHandler{
		responder:   NewResponder(logger),
		logger:      logger,
		commentRepo: commentRepo,
		gateway:     gateway,
	}
}

// addComment stores a comment by the signed-in user. Anonymous callers are
// sent to the login page with a notice.
// @Summary Add a comment
// @Tags Comments
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 303 "Redirect to the post, or to /login when signed out"
// @Failure 400 {object} FormView "Validation failed"
// @Failure 404 {object} ErrorResponse "Blog post not found"
// @Router /add-comment [post]
func (h commentHandler) addComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := ctxGetIdentity(r.Context())
		if err := h.gateway.RequireAuthenticated(identity); err != nil {
			setFlash(w, flashLoginToComment)
			h.responder.Redirect(w, r, "/login")
			return
		}

		var form commentForm
		if err := decodeForm(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		view := newFormView("comment", "/add-comment", "submit Comment", commentFields)
		if fieldErrs := validateForm(&form); fieldErrs != nil {
			h.responder.WriteJSONStatus(w, http.StatusBadRequest, view.withErrors(form.values(), fieldErrs))
			return
		}

		postID, err := form.postID()
		if err != nil {
			var apiErr *errs.ApiErr
			if errors.As(err, &apiErr) {
				h.responder.WriteJSONStatus(w, http.StatusBadRequest, view.withErrors(form.values(), fieldErrorsOf(apiErr)))
				return
			}
			h.responder.WriteError(w, err)
			return
		}

		comment, err := h.commentRepo.Add(r.Context(), identity.ID, postID, form.Comment)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create comment", err))
			return
		}

		h.logger.Info().Uint("commentID", comment.ID).Uint("postID", postID).Msg("Comment added")
		h.responder.Redirect(w, r, services.PostPath(postID))
	}
}
