// Package db mirrors harvested batches and run metadata into postgres.
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Bebenbaven/YTcommentGETer/internal/models"
)

var ErrNoDSN = errors.New("database url is empty")

// batchSize bounds the rows of a single INSERT.
const batchSize = 500

// Connect opens dsn and migrates the schema.
func Connect(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, ErrNoDSN
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Video{}, &models.Comment{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Store upserts comments and videos.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// commentColumns are refreshed when a comment is seen again.
var commentColumns = []string{
	"parent_id", "thread_id", "is_reply", "author", "published_at", "updated_at",
	"like_count", "text", "toxicity_label", "toxicity_score",
}

// SaveComments inserts cs, updating rows already stored for the same video
// and comment id.
func (s *Store) SaveComments(ctx context.Context, cs []models.Comment) error {
	if len(cs) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "video_id"}, {Name: "comment_id"}},
			DoUpdates: clause.AssignmentColumns(commentColumns),
		}).
		CreateInBatches(cs, batchSize).Error
	if err != nil {
		return fmt.Errorf("failed to save %d comments: %w", len(cs), err)
	}
	return nil
}

// SaveVideo records the latest run for a video.
func (s *Store) SaveVideo(ctx context.Context, v *models.Video) error {
	if v.HarvestedAt.IsZero() {
		v.HarvestedAt = time.Now().UTC()
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "video_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "description", "channel_id", "channel_title", "order", "records", "pages",
				"reply_listings", "duplicates", "capped", "empty_vectors", "toxic", "harvested_at", "updated_at",
			}),
		}).
		Create(v).Error
	if err != nil {
		return fmt.Errorf("failed to save video %s: %w", v.VideoID, err)
	}
	return nil
}
