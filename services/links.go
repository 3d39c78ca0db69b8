// Package services holds presentation helpers shared by the HTTP handlers.
package services

import (
	"fmt"
	"strings"
)

// PostLinks are the routes a client follows from a rendered post.
type PostLinks struct {
	Self   string `json:"self"`
	Edit   string `json:"edit,omitempty"`
	Delete string `json:"delete,omitempty"`
}

// PostPath returns the route that shows post id.
func PostPath(id uint) string {
	return fmt.Sprintf("/show_post/%d", id)
}

// BuildPostLinks returns the links for post id. Edit and delete links are
// only included for the admin.
func BuildPostLinks(baseURL string, id uint, admin bool) PostLinks {
	links := PostLinks{Self: absolute(baseURL, PostPath(id))}
	if admin {
		links.Edit = absolute(baseURL, fmt.Sprintf("/edit-post/%d", id))
		links.Delete = absolute(baseURL, fmt.Sprintf("/delete-post/%d", id))
	}
	return links
}

func absolute(baseURL, path string) string {
	if baseURL == "" {
		return path
	}
	return strings.TrimSuffix(baseURL, "/") + path
}
