package models

import (
	"fmt"
	"time"
)

// UnknownAuthor is shown when a post or comment author cannot be resolved.
const UnknownAuthor = "Unknown"

// DateLayout renders publish dates as "Month DD, YYYY".
const DateLayout = "January 02, 2006"

// FormatDate formats t the way publish dates are stored.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// BlogPost represents a published article
type BlogPost struct {
	ID       uint      `json:"id" db:"id" gorm:"primaryKey;autoIncrement"`
	AuthorID uint      `json:"authorId" db:"author_id" gorm:"not null;index:idx_blog_posts_author_id"`
	Author   *User     `json:"-" gorm:"foreignKey:AuthorID;references:ID"`
	Title    string    `json:"title" db:"title" gorm:"type:varchar(250);not null;uniqueIndex:idx_blog_posts_title"`
	Subtitle string    `json:"subtitle" db:"subtitle" gorm:"type:varchar(250);not null"`
	Date     string    `json:"date" db:"date" gorm:"type:varchar(250);not null"`
	Body     string    `json:"body" db:"body" gorm:"type:text;not null"`
	ImgURL   string    `json:"imgUrl" db:"img_url" gorm:"column:img_url;type:varchar(250);not null"`
	Comments []Comment `json:"comments,omitempty" gorm:"foreignKey:PostID;references:ID;constraint:OnDelete:CASCADE"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

// AuthorName returns the linked author's display name, or UnknownAuthor when
// the author was not loaded or no longer exists.
func (p *BlogPost) AuthorName() string {
	if p == nil || p.Author == nil || p.Author.ID == 0 {
		return UnknownAuthor
	}
	return p.Author.Name
}

func (p BlogPost) String() string {
	return fmt.Sprintf("<BlogPost %s,%s>", p.Title, p.Date)
}
