package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/uptrace/bun"
)

var validate = validator.New()

// Post is the analytics/comment anchor for a blog URL. The article body
// itself lives in the markdown content collection.
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int64      `bun:"id,pk,autoincrement" json:"id"`
	URL       string     `bun:"url,unique,notnull" json:"url" validate:"required,max=2048"`
	ViewCount int64      `bun:"view_count,notnull,default:0" json:"view_count" validate:"gte=0"`
	LikeCount int64      `bun:"like_count,notnull,default:0" json:"like_count" validate:"gte=0"`
	CreatedAt time.Time  `bun:"created_at,notnull" json:"createdAt" validate:"required"`
	Comments  []*Comment `bun:"rel:has-many,join:id=post_id" json:"comments,omitempty" validate:"-"`
}

// Comment is user-submitted text attached to a post.
type Comment struct {
	bun.BaseModel `bun:"table:comments,alias:c"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	PostID    int64     `bun:"post_id,notnull" json:"postId" validate:"required,gt=0"`
	Author    string    `bun:"author,notnull" json:"author" validate:"required,min=1,max=100"`
	Text      string    `bun:"text,notnull" json:"text" validate:"required,min=1,max=2000"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"createdAt" validate:"required"`
	Post      *Post     `bun:"rel:belongs-to,join:post_id=id" json:"-" validate:"-"`
}

// PageView is one recorded visit of a URL.
type PageView struct {
	bun.BaseModel `bun:"table:page_views,alias:pv"`

	ID   int64     `bun:"id,pk,autoincrement" json:"id"`
	URL  string    `bun:"url,notnull" json:"url" validate:"required,max=2048"`
	Date time.Time `bun:"date,notnull" json:"date" validate:"required"`
}

// Account is an administrator allowed to moderate comments and read stats.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Username     string    `bun:"username,unique,notnull" json:"username" validate:"required,min=3,max=64"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-" validate:"required"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt" validate:"required"`
}

// BlogEntry is a parsed markdown article from the content collection.
type BlogEntry struct {
	Slug         string    `json:"slug" validate:"required"`
	Title        string    `json:"title" validate:"required"`
	Tags         []string  `json:"tags"`
	Date         time.Time `json:"date" validate:"required"`
	Image        string    `json:"image,omitempty"`
	ImageAlt     string    `json:"imageAlt,omitempty"`
	Draft        bool      `json:"draft"`
	ContainImage bool      `json:"containImage"`
	Body         []byte    `json:"-"`
	HTML         string    `json:"-"`
}

// URL is the site path of the entry.
func (e *BlogEntry) URL() string {
	return "/blog/" + e.Slug
}
