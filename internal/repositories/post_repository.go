package repositories

import (
	"context"
	"time"

	"github.com/anonto42/reddit-feed/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostKey is the feed ordering key. Posts are ordered by CreatedAt and then
// by ID, both descending.
type PostKey struct {
	CreatedAt time.Time
	ID        uint
}

// KeyOf returns the ordering key of p.
func KeyOf(p *models.Post) PostKey {
	return PostKey{CreatedAt: p.CreatedAt, ID: p.ID}
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id uint) (*models.Post, error)
	// ListPosts returns up to limit posts ordered newest first, starting
	// strictly after the key when one is given.
	ListPosts(ctx context.Context, after *PostKey, limit int) ([]models.Post, error)
	CountPosts(ctx context.Context) (int64, error)
	// UpdatePost locks the post, hands it to mutate and persists the title
	// and text mutate leaves behind. An error from mutate aborts the update.
	UpdatePost(ctx context.Context, id uint, mutate func(*models.Post) error) (*models.Post, error)
	// DeletePost locks the post and deletes it when authorize allows.
	DeletePost(ctx context.Context, id uint, authorize func(*models.Post) error) error
}

// PostgresPostRepository implements PostRepository on the relational ledger
type PostgresPostRepository struct {
	db *gorm.DB
}

// NewPostgresPostRepository creates a new PostgresPostRepository
func NewPostgresPostRepository(db *gorm.DB) *PostgresPostRepository {
	return &PostgresPostRepository{db: db}
}

func (r *PostgresPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	return translate(r.db.WithContext(ctx).Create(post).Error)
}

func (r *PostgresPostRepository) GetPostByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) ListPosts(ctx context.Context, after *PostKey, limit int) ([]models.Post, error) {
	q := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if after != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}

	var posts []models.Post
	if err := q.Find(&posts).Error; err != nil {
		return nil, translate(err)
	}
	return posts, nil
}

func (r *PostgresPostRepository) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Post{}).Count(&n).Error; err != nil {
		return 0, translate(err)
	}
	return n, nil
}

func (r *PostgresPostRepository) UpdatePost(ctx context.Context, id uint, mutate func(*models.Post) error) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, id, &post); err != nil {
			return err
		}
		if err := mutate(&post); err != nil {
			return err
		}
		post.UpdatedAt = tx.NowFunc()
		return tx.Model(&models.Post{}).Where("id = ?", id).Updates(map[string]interface{}{
			"title":      post.Title,
			"text":       post.Text,
			"updated_at": post.UpdatedAt,
		}).Error
	})
	if err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *PostgresPostRepository) DeletePost(ctx context.Context, id uint, authorize func(*models.Post) error) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := lockPost(tx, id, &post); err != nil {
			return err
		}
		if err := authorize(&post); err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	return translate(err)
}

// lockPost reads the post row with a FOR UPDATE lock held until tx ends.
func lockPost(tx *gorm.DB, id uint, post *models.Post) error {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(post, id).Error
}
