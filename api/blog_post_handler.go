package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpupo63/blog-backend/auth"
	"github.com/rpupo63/blog-backend/database"
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type blogPostHandler struct {
	responder    Responder
	logger       zerolog.Logger
	blogPostRepo *database.BlogPostRepo
	gateway      *auth.Gateway
	baseURL      string
}

func newBlogPostHandler(blogPostRepo *database.BlogPostRepo, gateway *auth.Gateway, baseURL string) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		blogPostRepo: blogPostRepo,
		gateway:      gateway,
		baseURL:      baseURL,
	}
}

func newPostView() FormView {
	return newFormView("post", "/new-post", "create Post", postFields)
}

func editPostView(id uint) FormView {
	view := newFormView("post", fmt.Sprintf("/edit-post/%d", id), "Update Post", postFields)
	view.IsEdit = true
	return view
}

// postIDParam reads {postID}. Anything that is not a positive integer cannot
// name a post, so it is reported as not found.
func postIDParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "postID"), 10, 64)
	if err != nil || id == 0 {
		return 0, errs.NewNotFound("blog post")
	}
	return uint(id), nil
}

// getAllBlogPosts lists every post for the home page
// @Summary Get all blog posts
// @Description Retrieves all blog posts in publication order with their author names
// @Tags Blog Posts
// @Produce json
// @Success 200 {object} IndexView "List of blog posts"
// @Failure 500 {object} ErrorResponse "Internal Server Error - Error fetching blog posts"
// @Router / [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := ctxGetIdentity(r.Context())
		admin := h.gateway.IsAdmin(identity)

		blogPosts, err := h.blogPostRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find blog posts", err))
			return
		}

		summaries := make([]PostSummary, 0, len(blogPosts))
		for _, blogPost := range blogPosts {
			summaries = append(summaries, newPostSummary(blogPost, h.baseURL, admin))
		}

		h.responder.WriteJSON(w, IndexView{
			Posts:    summaries,
			Admin:    admin,
			LoggedIn: identity != nil,
			Flashes:  popFlashes(w, r),
		})
	}
}

// getBlogPost shows one post with its comments
// @Summary Get a blog post
// @Tags Blog Posts
// @Produce json
// @Param postID path int true "Blog post ID"
// @Success 200 {object} PostView
// @Failure 404 {object} ErrorResponse "Blog post not found"
// @Router /show_post/{postID} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := postIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find blog post", err))
			return
		}

		identity := ctxGetIdentity(r.Context())
		admin := h.gateway.IsAdmin(identity)

		comments := make([]CommentView, 0, len(blogPost.Comments))
		for i := range blogPost.Comments {
			comments = append(comments, newCommentView(&blogPost.Comments[i]))
		}

		commentForm := newFormView("comment", "/add-comment", "submit Comment", commentFields)
		commentForm.Values = map[string]string{"post_id": strconv.FormatUint(uint64(blogPost.ID), 10)}

		h.responder.WriteJSON(w, PostView{
			PostSummary: newPostSummary(blogPost, h.baseURL, admin),
			Body:        blogPost.Body,
			Comments:    comments,
			CommentForm: commentForm,
			Admin:       admin,
			LoggedIn:    identity != nil,
			Flashes:     popFlashes(w, r),
		})
	}
}

// newBlogPostForm describes the empty post form
// @Summary New post form
// @Tags Blog Posts
// @Produce json
// @Success 200 {object} FormView
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Router /new-post [get]
func (h blogPostHandler) newBlogPostForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.responder.WriteJSON(w, newPostView())
	}
}

// createBlogPost publishes a new post authored by the admin
// @Summary Create a blog post
// @Tags Blog Posts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 303 "Redirect to /"
// @Failure 400 {object} FormView "Validation failed"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 409 {object} FormView "Title already used"
// @Router /new-post [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var form postForm
		if err := decodeForm(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := validateForm(&form); fieldErrs != nil {
			h.responder.WriteJSONStatus(w, http.StatusBadRequest, newPostView().withErrors(form.values(), fieldErrs))
			return
		}

		identity := ctxGetIdentity(r.Context())
		blogPost, err := h.blogPostRepo.Add(r.Context(), database.CreatePostParams{
			AuthorID: identity.ID,
			Title:    form.Title,
			Subtitle: form.Subtitle,
			ImgURL:   form.ImgURL,
			Body:     form.Body,
		})
		if err != nil {
			if errs.IsDuplicateTitle(err) {
				view := newPostView().withErrors(form.values(), nil)
				view.Flashes = []string{flashDuplicateTitle}
				h.responder.WriteJSONStatus(w, http.StatusConflict, view)
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("create blog post", err))
			return
		}

		h.logger.Info().Uint("postID", blogPost.ID).Str("title", blogPost.Title).Msg("Blog post created")
		h.responder.Redirect(w, r, "/")
	}
}

// editBlogPostForm describes the post form prefilled with the current post
// @Summary Edit post form
// @Tags Blog Posts
// @Produce json
// @Param postID path int true "Blog post ID"
// @Success 200 {object} FormView
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Blog post not found"
// @Router /edit-post/{postID} [get]
func (h blogPostHandler) editBlogPostForm() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := postIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), id)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find blog post", err))
			return
		}

		view := editPostView(blogPost.ID)
		view.Values = map[string]string{
			"title":    blogPost.Title,
			"subtitle": blogPost.Subtitle,
			"img_url":  blogPost.ImgURL,
			"body":     blogPost.Body,
		}
		h.responder.WriteJSON(w, view)
	}
}

// updateBlogPost applies an edit. Every edit re-stamps the publish date and
// makes the editing admin the author.
// @Summary Update a blog post
// @Tags Blog Posts
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Param postID path int true "Blog post ID"
// @Success 303 "Redirect to the post"
// @Failure 400 {object} FormView "Validation failed"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Blog post not found"
// @Failure 409 {object} FormView "Title already used"
// @Router /edit-post/{postID} [post]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := postIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var form postForm
		if err := decodeForm(w, r, &form); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if fieldErrs := validateForm(&form); fieldErrs != nil {
			h.responder.WriteJSONStatus(w, http.StatusBadRequest, editPostView(id).withErrors(form.values(), fieldErrs))
			return
		}

		identity := ctxGetIdentity(r.Context())
		blogPost, err := h.blogPostRepo.Update(r.Context(), id, database.UpdatePostParams{
			AuthorID: &identity.ID,
			Title:    &form.Title,
			Subtitle: &form.Subtitle,
			ImgURL:   &form.ImgURL,
			Body:     &form.Body,
		})
		if err != nil {
			if errs.IsDuplicateTitle(err) {
				view := editPostView(id).withErrors(form.values(), nil)
				view.Flashes = []string{flashDuplicateTitle}
				h.responder.WriteJSONStatus(w, http.StatusConflict, view)
				return
			}
			h.responder.WriteError(w, wrapDatabaseError("update blog post", err))
			return
		}

		h.logger.Info().Uint("postID", blogPost.ID).Str("date", blogPost.Date).Msg("Blog post updated")
		h.responder.Redirect(w, r, services.PostPath(blogPost.ID))
	}
}

// deleteBlogPost removes a post and its comments
// @Summary Delete a blog post
// @Tags Blog Posts
// @Param postID path int true "Blog post ID"
// @Success 303 "Redirect to /"
// @Failure 403 {object} ErrorResponse "Forbidden"
// @Failure 404 {object} ErrorResponse "Blog post not found"
// @Router /delete-post/{postID} [get]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := postIDParam(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogPostRepo.Delete(r.Context(), id); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete blog post", err))
			return
		}

		h.logger.Info().Uint("postID", id).Msg("Blog post deleted")
		h.responder.Redirect(w, r, "/")
	}
}
