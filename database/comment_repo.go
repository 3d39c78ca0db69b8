package database

import (
	"context"

	"github.com/rpupo63/blog-backend/errs"
	"github.com/rpupo63/blog-backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CommentRepo struct {
	db *gorm.DB
}

func NewCommentRepo(db *gorm.DB) *CommentRepo {
	return &CommentRepo{db}
}

// Add stores a comment by authorID on postID. The post must exist.
func (r *CommentRepo) Add(ctx context.Context, authorID, postID uint, text string) (*models.Comment, error) {
	comment := &models.Comment{
		AuthorID: authorID,
		PostID:   postID,
		Text:     text,
	}

	err := withTx(ctx, r.db, "create comment", func(tx *gorm.DB) error {
		var blogPost models.BlogPost
		if err := tx.Select("id").First(&blogPost, postID).Error; err != nil {
			return err
		}
		return tx.Omit(clause.Associations).Create(comment).Error
	})
	if err != nil {
		if errs.IsForeignKeyConstraintError(err) {
			return nil, errs.NewForeignKeyConstraintError("comments", "users", err)
		}
		return nil, notFoundAs(err, "blog post")
	}
	return comment, nil
}

// FindByPost returns the comments on postID in the order they were written
func (r *CommentRepo) FindByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	var comments []*models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("id ASC").
		Find(&comments).Error
	return comments, errs.TranslateDB(err)
}
