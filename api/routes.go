package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes registers every route. Identity is resolved for all of them;
// post management additionally requires the admin.
func setupRoutes(r chi.Router, handlers *routeHandlers, authMiddleware authMiddleware) {
	r.Get("/health", handlers.pageHandler.health())

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.identify)

		r.Get("/", handlers.blogPostHandler.getAllBlogPosts())
		r.Get("/show_post/{postID}", handlers.blogPostHandler.getBlogPost())

		// Auth Handler endpoints
		r.Get("/register", handlers.authHandler.registerForm())
		r.Post("/register", handlers.authHandler.register())
		r.Get("/login", handlers.authHandler.loginForm())
		r.Post("/login", handlers.authHandler.login())
		r.Get("/logout", handlers.authHandler.logout())

		// Comment Handler endpoints
		r.Post("/add-comment", handlers.commentHandler.addComment())

		// Static pages
		r.Get("/about", handlers.pageHandler.about())
		r.Get("/contact", handlers.pageHandler.contact())

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.requireAdmin)

			r.Get("/new-post", handlers.blogPostHandler.newBlogPostForm())
			r.Post("/new-post", handlers.blogPostHandler.createBlogPost())
			r.Get("/edit-post/{postID}", handlers.blogPostHandler.editBlogPostForm())
			r.Post("/edit-post/{postID}", handlers.blogPostHandler.updateBlogPost())
			r.Get("/delete-post/{postID}", handlers.blogPostHandler.deleteBlogPost())
		})
	})
}
