package models

import (
	"time"
	"unicode/utf8"
)

const snippetLength = 50

// Post is a feed entry. Points caches the sum of all vote values for the post.
type Post struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	UserID    uint      `json:"userId"`
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

// TextSnippet returns the first 50 characters of the post body.
func (p *Post) TextSnippet() string {
	if utf8.RuneCountInString(p.Text) <= snippetLength {
		return p.Text
	}
	runes := []rune(p.Text)
	return string(runes[:snippetLength])
}

// EnrichedPost is a post with its resolved author and the caller's vote.
// Author is nil when the author row could not be found.
type EnrichedPost struct {
	Post
	TextSnippet string       `json:"textSnippet"`
	Author      *UserCompact `json:"author"`
	VoteType    int          `json:"voteType"`
}

// PaginatedPosts is one feed page.
type PaginatedPosts struct {
	TotalCount int64          `json:"totalCount"`
	Cursor     string         `json:"cursor,omitempty"`
	HasMore    bool           `json:"hasMore"`
	Items      []EnrichedPost `json:"items"`
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
	Text  string `json:"text" validate:"required,min=1"`
}

// UpdatePostRequest defines the request body for updating an existing post
type UpdatePostRequest struct {
	Title string `json:"title" validate:"required,min=1,max=255"`
	Text  string `json:"text" validate:"required,min=1"`
}

// FieldError reports a validation failure on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PostMutationResponse is returned by every post mutation, including votes.
type PostMutationResponse struct {
	Code      int           `json:"code"`
	Success   bool          `json:"success"`
	Message   string        `json:"message"`
	ErrorCode string        `json:"errorCode,omitempty"`
	Post      *EnrichedPost `json:"post,omitempty"`
	Errors    []FieldError  `json:"errors,omitempty"`
}
