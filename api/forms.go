package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rpupo63/blog-backend/errs"
)

const maxFormBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type registerForm struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required"`
}

func (f *registerForm) bind(values url.Values) {
	f.Name = values.Get("name")
	f.Email = values.Get("email")
	f.Password = values.Get("password")
}

func (f *registerForm) normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
}

func (f *registerForm) values() map[string]string {
	return map[string]string{"name": f.Name, "email": f.Email}
}

type loginForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (f *loginForm) bind(values url.Values) {
	f.Email = values.Get("email")
	f.Password = values.Get("password")
}

func (f *loginForm) normalize() {
	f.Email = strings.TrimSpace(f.Email)
}

func (f *loginForm) values() map[string]string {
	return map[string]string{"email": f.Email}
}

type postForm struct {
	Title    string `json:"title" validate:"required,max=250"`
	Subtitle string `json:"subtitle" validate:"required,max=250"`
	ImgURL   string `json:"img_url" validate:"required,url,max=250"`
	Body     string `json:"body" validate:"required"`
}

func (f *postForm) bind(values url.Values) {
	f.Title = values.Get("title")
	f.Subtitle = values.Get("subtitle")
	f.ImgURL = values.Get("img_url")
	f.Body = values.Get("body")
}

func (f *postForm) normalize() {
	f.Title = strings.TrimSpace(f.Title)
	f.Subtitle = strings.TrimSpace(f.Subtitle)
	f.ImgURL = strings.TrimSpace(f.ImgURL)
}

func (f *postForm) values() map[string]string {
	return map[string]string{
		"title":    f.Title,
		"subtitle": f.Subtitle,
		"img_url":  f.ImgURL,
		"body":     f.Body,
	}
}

// formID accepts a numeric id sent either as a JSON number or a string.
type formID string

func (id *formID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = formID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = formID(n.String())
	return nil
}

type commentForm struct {
	PostID  formID `json:"post_id" validate:"required,numeric"`
	Comment string `json:"comment" validate:"required"`
}

func (f *commentForm) bind(values url.Values) {
	f.PostID = formID(values.Get("post_id"))
	f.Comment = values.Get("comment")
}

func (f *commentForm) normalize() {
	f.PostID = formID(strings.TrimSpace(string(f.PostID)))
}

func (f *commentForm) values() map[string]string {
	return map[string]string{"post_id": string(f.PostID), "comment": f.Comment}
}

func (f *commentForm) postID() (uint, error) {
	id, err := strconv.ParseUint(string(f.PostID), 10, 64)
	if err != nil {
		return 0, errs.NewInvalidFieldError("post_id", "must be a post id")
	}
	return uint(id), nil
}

type form interface {
	bind(values url.Values)
	normalize()
	values() map[string]string
}

// decodeForm fills f from a JSON body or from url-encoded/multipart form
// values, depending on the request content type.
func decodeForm(w http.ResponseWriter, r *http.Request, f form) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(f); err != nil {
			return errs.NewMalformedPayloadError("JSON", err)
		}
		f.normalize()
		return nil
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormBytes); err != nil {
			return errs.NewMalformedPayloadError("form", err)
		}
	} else if err := r.ParseForm(); err != nil {
		return errs.NewMalformedPayloadError("form", err)
	}
	f.bind(r.PostForm)
	f.normalize()
	return nil
}

// validateForm returns field -> message for every failed rule, or nil.
func validateForm(f form) map[string]string {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return map[string]string{"form": err.Error()}
	}

	fieldErrs := make(map[string]string, len(validationErrs))
	for _, fe := range validationErrs {
		fieldErrs[fe.Field()] = fieldMessage(fe)
	}
	return fieldErrs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "url":
		return "Invalid URL."
	case "numeric":
		return "Must be a number."
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return fmt.Sprintf("Failed the %q rule.", fe.Tag())
	}
}
