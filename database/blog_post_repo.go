package database

import (
	"context"
	"time"

	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatePostParams holds the fields required to publish a post.
type CreatePostParams struct {
	AuthorID uint
	Title    string
	Subtitle string
	ImgURL   string
	Body     string
}

// UpdatePostParams holds the editable fields of a post. Nil fields are left
// untouched; the publish date is always re-stamped.
type UpdatePostParams struct {
	AuthorID *uint
	Title    *string
	Subtitle *string
	ImgURL   *string
	Body     *string
}

type BlogPostRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBlogPostRepo(db *gorm.DB, now func() time.Time) *BlogPostRepo {
	if now == nil {
		now = time.Now
	}
	return &BlogPostRepo{db: db, now: now}
}

// FindAll returns all blog posts in primary key order with their authors
func (r *BlogPostRepo) FindAll(ctx context.Context) ([]*models.BlogPost, error) {
	var blogPosts []*models.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Order("id ASC").
		Find(&blogPosts).Error
	return blogPosts, errs.TranslateDB(err)
}

// FindByID returns a blog post with its author and comments
func (r *BlogPostRepo) FindByID(ctx context.Context, id uint) (*models.BlogPost, error) {
	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Comments.Author").
		First(&blogPost, id).Error
	if err != nil {
		return nil, notFoundAs(errs.TranslateDB(err), "blog post")
	}
	return &blogPost, nil
}

// Add inserts a new blog post dated today
func (r *BlogPostRepo) Add(ctx context.Context, params CreatePostParams) (*models.BlogPost, error) {
	blogPost := &models.BlogPost{
		AuthorID: params.AuthorID,
		Title:    params.Title,
		Subtitle: params.Subtitle,
		Date:     models.FormatDate(r.now()),
		Body:     params.Body,
		ImgURL:   params.ImgURL,
	}

	err := withTx(ctx, r.db, "create blog post", func(tx *gorm.DB) error {
		return tx.Omit(clause.Associations).Create(blogPost).Error
	})
	if err != nil {
		if errs.IsUniqueConstraintViolationError(err) {
			return nil, errs.NewDuplicateTitleError(err)
		}
		if errs.IsForeignKeyConstraintError(err) {
			return nil, errs.NewForeignKeyConstraintError("blog_posts", "users", err)
		}
		return nil, err
	}
	return blogPost, nil
}

// Update applies params to an existing blog post and re-stamps its date
func (r *BlogPostRepo) Update(ctx context.Context, id uint, params UpdatePostParams) (*models.BlogPost, error) {
	err := withTx(ctx, r.db, "update blog post", func(tx *gorm.DB) error {
		var blogPost models.BlogPost
		if err := tx.First(&blogPost, id).Error; err != nil {
			return err
		}

		if params.AuthorID != nil {
			blogPost.AuthorID = *params.AuthorID
		}
		if params.Title != nil {
			blogPost.Title = *params.Title
		}
		if params.Subtitle != nil {
			blogPost.Subtitle = *params.Subtitle
		}
		if params.ImgURL != nil {
			blogPost.ImgURL = *params.ImgURL
		}
		if params.Body != nil {
			blogPost.Body = *params.Body
		}
		blogPost.Date = models.FormatDate(r.now())

		return tx.Omit(clause.Associations).Save(&blogPost).Error
	})
	if err != nil {
		if errs.IsUniqueConstraintViolationError(err) {
			return nil, errs.NewDuplicateTitleError(err)
		}
		if errs.IsForeignKeyConstraintError(err) {
			return nil, errs.NewForeignKeyConstraintError("blog_posts", "users", err)
		}
		return nil, notFoundAs(err, "blog post")
	}
	return r.FindByID(ctx, id)
}

// Delete removes a blog post and its comments
func (r *BlogPostRepo) Delete(ctx context.Context, id uint) error {
	err := withTx(ctx, r.db, "delete blog post", func(tx *gorm.DB) error {
		var blogPost models.BlogPost
		if err := tx.Select("id").First(&blogPost, id).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.BlogPost{}, id).Error
	})
	return notFoundAs(err, "blog post")
}

// notFoundAs turns a bare not-found classification into a 404 for entity.
func notFoundAs(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errs.IsNotFound(err) {
		return errs.NewNotFound(entity)
	}
	return err
}
