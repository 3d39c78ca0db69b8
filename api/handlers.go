package api

import (
	"time"

	"github.com/rpupo63/blog-backend/auth"
	"github.com/rpupo63/blog-backend/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(db database.Database, gateway *auth.Gateway, baseURL string, startupTime time.Time) *routeHandlers {
	return &routeHandlers{
		authHandler:     newAuthHandler(gateway),
		blogPostHandler: newBlogPostHandler(db.BlogPostRepo(), gateway, baseURL),
		commentHandler:  newCommentHandler(db.CommentRepo(), gateway),
		pageHandler:     newPageHandler(db, startupTime),
	}
}
