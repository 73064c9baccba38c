package repositories

import (
	"context"
	"errors"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository defines the read side of the vote ledger
type VoteRepository interface {
	// GetVotesByKeys returns the votes matching keys in one round trip.
	GetVotesByKeys(ctx context.Context, keys []models.VoteKey) ([]models.Vote, error)
}

// VoteLedger runs vote mutations as one atomic unit.
type VoteLedger interface {
	WithinTx(ctx context.Context, fn func(tx VoteTx) error) error
}

// VoteTx is the set of reads and writes available inside a vote transaction.
type VoteTx interface {
	// LockPost reads the post and holds a row lock on it until commit.
	LockPost(postID uint) (*models.Post, error)
	// GetVote returns nil and no error when the user has not voted.
	GetVote(userID, postID uint) (*models.Vote, error)
	InsertVote(vote *models.Vote) error
	UpdateVoteValue(userID, postID uint, value int) error
	// AddPoints adjusts the cached score by delta and returns the post.
	AddPoints(postID uint, delta int) (*models.Post, error)
}

// PostgresVoteRepository implements VoteRepository and VoteLedger
type PostgresVoteRepository struct {
	db *gorm.DB
}

// NewPostgresVoteRepository creates a new PostgresVoteRepository
func NewPostgresVoteRepository(db *gorm.DB) *PostgresVoteRepository {
	return &PostgresVoteRepository{db: db}
}

func (r *PostgresVoteRepository) GetVotesByKeys(ctx context.Context, keys []models.VoteKey) ([]models.Vote, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	wanted := make(map[models.VoteKey]struct{}, len(keys))
	userIDs := make([]uint, 0, 1)
	postIDs := make([]uint, 0, len(keys))
	seenUser := make(map[uint]struct{})
	seenPost := make(map[uint]struct{})
	for _, k := range keys {
		wanted[k] = struct{}{}
		if _, ok := seenUser[k.UserID]; !ok {
			seenUser[k.UserID] = struct{}{}
			userIDs = append(userIDs, k.UserID)
		}
		if _, ok := seenPost[k.PostID]; !ok {
			seenPost[k.PostID] = struct{}{}
			postIDs = append(postIDs, k.PostID)
		}
	}

	var rows []models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND post_id IN ?", userIDs, postIDs).
		Find(&rows).Error
	if err != nil {
		return nil, translate(err)
	}

	// The IN x IN query can match pairs nobody asked for.
	votes := rows[:0]
	for _, v := range rows {
		if _, ok := wanted[models.VoteKey{UserID: v.UserID, PostID: v.PostID}]; ok {
			votes = append(votes, v)
		}
	}
	return votes, nil
}

// WithinTx runs fn in a database transaction. The transaction is rolled back
// when fn fails or ctx is cancelled before commit.
func (r *PostgresVoteRepository) WithinTx(ctx context.Context, fn func(tx VoteTx) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormVoteTx{tx: tx})
	})
	return translate(err)
}

type gormVoteTx struct {
	tx *gorm.DB
}

func (t *gormVoteTx) LockPost(postID uint) (*models.Post, error) {
	var post models.Post
	if err := lockPost(t.tx, postID, &post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (t *gormVoteTx) GetVote(userID, postID uint) (*models.Vote, error) {
	var vote models.Vote
	err := t.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Take(&vote).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &vote, nil
}

func (t *gormVoteTx) InsertVote(vote *models.Vote) error {
	return translate(t.tx.Create(vote).Error)
}

func (t *gormVoteTx) UpdateVoteValue(userID, postID uint, value int) error {
	res := t.tx.Model(&models.Vote{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Update("value", value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (t *gormVoteTx) AddPoints(postID uint, delta int) (*models.Post, error) {
	if delta != 0 {
		err := t.tx.Model(&models.Post{}).
			Where("id = ?", postID).
			Update("points", gorm.Expr("points + ?", delta)).Error
		if err != nil {
			return nil, translate(err)
		}
	}

	var post models.Post
	if err := t.tx.First(&post, postID).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}
