package models

import (
	"errors"
	"strings"
	"time"
)

// Validate checks if the comment meets all validation requirements
func (c *Comment) Validate() error {
	if err := c.checkBlank(); err != nil {
		return err
	}
	return validate.Struct(c)
}

// ValidateContent checks author and text before the comment is attached to
// a post.
func (c *Comment) ValidateContent() error {
	if err := c.checkBlank(); err != nil {
		return err
	}
	return validate.StructPartial(c, "Author", "Text")
}

func (c *Comment) checkBlank() error {
	if strings.TrimSpace(c.Author) == "" {
		return errors.New("author is required")
	}
	if strings.TrimSpace(c.Text) == "" {
		return errors.New("text is required")
	}
	return nil
}

// BeforeCreate trims user input and stamps the creation time
func (c *Comment) BeforeCreate() {
	c.Author = strings.TrimSpace(c.Author)
	c.Text = strings.TrimSpace(c.Text)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
}

// SetPost sets the parent post and updates the PostID
func (c *Comment) SetPost(post *Post) error {
	if post == nil {
		return errors.New("post cannot be nil")
	}

	c.Post = post
	c.PostID = post.ID
	return nil
}
