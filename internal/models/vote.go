package models

// Vote is the single vote a user holds on a post. Value is +1 or -1.
type Vote struct {
	UserID uint `json:"userId"`
	PostID uint `json:"postId"`
	Value  int  `json:"value"`
}

func (Vote) TableName() string { return "votes" }

const (
	Upvote   = 1
	Downvote = -1
)

// VoteKey identifies a vote row.
type VoteKey struct {
	UserID uint
	PostID uint
}

// ValidVoteValue reports whether v is an accepted vote direction.
func ValidVoteValue(v int) bool {
	return v == Upvote || v == Downvote
}

// VoteRequest defines the request body for voting on a post
type VoteRequest struct {
	Value int `json:"value" validate:"required,oneof=1 -1"`
}
