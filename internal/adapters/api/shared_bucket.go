package api

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/spacetraders-fleet/internal/domain/shared"
)

// rateBucketRow is the single persisted bucket record
type rateBucketRow struct {
	ID         int       `gorm:"primaryKey;column:id"`
	Tokens     float64   `gorm:"column:tokens"`
	LastRefill time.Time `gorm:"column:last_refill"`
}

func (rateBucketRow) TableName() string {
	return "rate_bucket"
}

// SharedBucket is a token bucket persisted as one database row, letting
// several processes authenticated as the same agent split one API budget.
// Refill happens lazily on take: tokens grow by elapsed·rate since the
// last refill, capped at burst. Each take is a read-modify-write inside a
// transaction so concurrent processes never double-spend a token.
type SharedBucket struct {
	db    *gorm.DB
	rate  float64
	burst int
	clock shared.Clock

	mu         sync.Mutex
	lastTokens float64
}

var _ TokenSource = (*SharedBucket)(nil)

// NewSharedBucket opens (and migrates) the bucket table and seeds the row
// with a full bucket if it does not exist yet. A nil clock selects the
// real clock.
func NewSharedBucket(db *gorm.DB, ratePerSec float64, burst int, clock shared.Clock) (*SharedBucket, error) {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if err := db.AutoMigrate(&rateBucketRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate rate bucket: %w", err)
	}

	seed := rateBucketRow{ID: 1, Tokens: float64(burst), LastRefill: clock.Now()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
		return nil, fmt.Errorf("failed to seed rate bucket: %w", err)
	}

	return &SharedBucket{
		db:    db,
		rate:  ratePerSec,
		burst: burst,
		clock: clock,
	}, nil
}

// TryTake consumes one token if the refilled balance allows it. Database
// errors count as "no token"; the caller's drain tick retries shortly.
func (b *SharedBucket) TryTake() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	taken := false
	err := b.db.Transaction(func(tx *gorm.DB) error {
		var row rateBucketRow
		query := tx
		if tx.Dialector.Name() == "postgres" {
			query = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&row, 1).Error; err != nil {
			return err
		}

		now := b.clock.Now()
		elapsed := now.Sub(row.LastRefill).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		tokens := math.Min(float64(b.burst), row.Tokens+elapsed*b.rate)
		if tokens >= 1 {
			tokens--
			taken = true
		}
		b.lastTokens = tokens

		return tx.Model(&rateBucketRow{}).Where("id = ?", 1).
			Updates(map[string]any{"tokens": tokens, "last_refill": now}).Error
	})
	if err != nil {
		return false
	}
	return taken
}

// Refund returns one token to the row, capped at burst
func (b *SharedBucket) Refund() {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.db.Transaction(func(tx *gorm.DB) error {
		var row rateBucketRow
		if err := tx.First(&row, 1).Error; err != nil {
			return err
		}
		tokens := math.Min(float64(b.burst), row.Tokens+1)
		b.lastTokens = tokens
		return tx.Model(&rateBucketRow{}).Where("id = ?", 1).
			Update("tokens", tokens).Error
	})
}

// WaitHint estimates the time until a token is available, from the balance
// observed on the last take
func (b *SharedBucket) WaitHint() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastTokens >= 1 || b.rate <= 0 {
		return 0
	}
	return time.Duration((1 - b.lastTokens) / b.rate * float64(time.Second))
}
