package models

// Comment is a reply left by an authenticated user on a post.
type Comment struct {
	ID       uint      `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID uint      `json:"authorId" db:"author_id" gorm:"not null;index:idx_comments_author_id"`
	Author   *User     `json:"-" gorm:"foreignKey:AuthorID;references:ID"`
	PostID   uint      `json:"postId" db:"post_id" gorm:"not null;index:idx_comments_post_id"`
	Post     *BlogPost `json:"-" gorm:"foreignKey:PostID;references:ID"`
	Text     string    `json:"text" db:"text" gorm:"type:text;not null"`
}

func (Comment) TableName() string {
	return "comments"
}

func (c *Comment) AuthorName() string {
	if c == nil || c.Author == nil || c.Author.ID == 0 {
		return UnknownAuthor
	}
	return c.Author.Name
}
