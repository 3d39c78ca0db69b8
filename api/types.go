package api

import (
	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"github.com/rpupo63/blog-backend/services"
)

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	authHandler     authHandler
	blogPostHandler blogPostHandler
	commentHandler  commentHandler
	pageHandler     pageHandler
}

// ErrorResponse represents an error response from the API
// @Description Error response structure
type ErrorResponse struct {
	Error   string `json:"error" example:"Internal Server Error"`
	Status  string `json:"status" example:"error"`
	Field   string `json:"field,omitempty" example:"title"`
	Details string `json:"details,omitempty" example:"Additional error details"`
	Cause   string `json:"cause,omitempty" example:"Underlying error cause"`
}

// FormView describes a form to render, with submitted values and field errors
// when a submission was rejected.
type FormView struct {
	Form    string            `json:"form"`
	Action  string            `json:"action"`
	Fields  []string          `json:"fields"`
	Submit  string            `json:"submit"`
	IsEdit  bool              `json:"isEdit,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Flashes []string          `json:"flashes,omitempty"`
}

// PostSummary is a post as listed on the home page.
type PostSummary struct {
	ID         uint               `json:"id"`
	Title      string             `json:"title"`
	Subtitle   string             `json:"subtitle"`
	Date       string             `json:"date"`
	AuthorName string             `json:"authorName"`
	ImgURL     string             `json:"imgUrl"`
	Links      services.PostLinks `json:"links"`
}

// IndexView is the home page.
type IndexView struct {
	Posts    []PostSummary `json:"posts"`
	Admin    bool          `json:"admin"`
	LoggedIn bool          `json:"loggedIn"`
	Flashes  []string      `json:"flashes,omitempty"`
}

// CommentView is a comment as rendered under a post.
type CommentView struct {
	ID         uint   `json:"id"`
	Text       string `json:"text"`
	AuthorName string `json:"authorName"`
	AvatarURL  string `json:"avatarUrl"`
}

// PostView is a single post with its comments and the comment form.
type PostView struct {
	PostSummary
	Body        string        `json:"body"`
	Comments    []CommentView `json:"comments"`
	CommentForm FormView      `json:"commentForm"`
	Admin       bool          `json:"admin"`
	LoggedIn    bool          `json:"loggedIn"`
	Flashes     []string      `json:"flashes,omitempty"`
}

// PageView is a static page.
type PageView struct {
	Page     string `json:"page"`
	Title    string `json:"title"`
	LoggedIn bool   `json:"loggedIn"`
}

func newPostSummary(post *models.BlogPost, baseURL string, admin bool) PostSummary {
	return PostSummary{
		ID:         post.ID,
		Title:      post.Title,
		Subtitle:   post.Subtitle,
		Date:       post.Date,
		AuthorName: post.AuthorName(),
		ImgURL:     post.ImgURL,
		Links:      services.BuildPostLinks(baseURL, post.ID, admin),
	}
}

func newCommentView(comment *models.Comment) CommentView {
	view := CommentView{
		ID:         comment.ID,
		Text:       comment.Text,
		AuthorName: comment.AuthorName(),
	}
	if comment.Author != nil {
		view.AvatarURL = services.GravatarURL(comment.Author.Email, 100)
	}
	return view
}

var (
	registerFields = []string{"name", "email", "password"}
	loginFields    = []string{"email", "password"}
	postFields     = []string{"title", "subtitle", "img_url", "body"}
	commentFields  = []string{"post_id", "comment"}
)

func newFormView(name, action, submit string, fields []string) FormView {
	return FormView{Form: name, Action: action, Fields: fields, Submit: submit}
}

// withErrors returns the form re-rendered with the submitted values and the
// field messages that rejected it.
func (v FormView) withErrors(values, fieldErrs map[string]string) FormView {
	v.Values = values
	v.Errors = fieldErrs
	return v
}

// fieldErrorsOf turns a field-level ApiErr into the form's error map.
func fieldErrorsOf(apiErr *errs.ApiErr) map[string]string {
	field := apiErr.Field
	if field == "" {
		field = "form"
	}
	msg := apiErr.Reason
	if msg == "" {
		msg = apiErr.Message()
	}
	return map[string]string{field: msg}
}
