package auth

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	CreateCode(ctx context.Context, code *LoginCode) error
	// ConsumeCode marks one matching unused, unexpired code as used and reports whether it did.
	ConsumeCode(ctx context.Context, userID uint, code string, now time.Time) (bool, error)
	DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error)

	// IncrementFailures bumps the counter of (origin, user) and returns its new value.
	IncrementFailures(ctx context.Context, originID string, userID uint, now time.Time) (int, error)
	ResetFailures(ctx context.Context, originID string, userID uint) error
	DeleteStaleFailures(ctx context.Context, before time.Time) (int64, error)

	BlockOrigin(ctx context.Context, originID string, until time.Time) error
	IsOriginBlocked(ctx context.Context, originID string, now time.Time) (bool, error)
	DeleteExpiredBlocks(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateCode(ctx context.Context, code *LoginCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// ConsumeCode is a single UPDATE so that two concurrent submissions of the
// same code cannot both succeed.
func (r *repository) ConsumeCode(ctx context.Context, userID uint, code string, now time.Time) (bool, error) {
	db := r.db.WithContext(ctx)

	match := db.Model(&LoginCode{}).
		Select("id").
		Where("user_id = ? AND code = ? AND used = ? AND expires_at > ?", userID, code, false, now).
		Limit(1)

	res := db.Model(&LoginCode{}).
		Where("id = (?) AND used = ?", match, false).
		Update("used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) DeleteExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&LoginCode{})
	return res.RowsAffected, res.Error
}

const incrementFailuresSQL = `INSERT INTO failed_attempts (origin_id, user_id, attempts, last_attempt)
VALUES (?, ?, 1, ?)
ON CONFLICT (origin_id, user_id) DO UPDATE
SET attempts = failed_attempts.attempts + 1, last_attempt = excluded.last_attempt
RETURNING attempts`

func (r *repository) IncrementFailures(ctx context.Context, originID string, userID uint, now time.Time) (int, error) {
	var attempts int
	err := r.db.WithContext(ctx).Raw(incrementFailuresSQL, originID, userID, now).Scan(&attempts).Error
	return attempts, err
}

func (r *repository) ResetFailures(ctx context.Context, originID string, userID uint) error {
	return r.db.WithContext(ctx).
		Where("origin_id = ? AND user_id = ?", originID, userID).
		Delete(&FailedAttempt{}).Error
}

func (r *repository) DeleteStaleFailures(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("last_attempt < ?", before).Delete(&FailedAttempt{})
	return res.RowsAffected, res.Error
}

func (r *repository) BlockOrigin(ctx context.Context, originID string, until time.Time) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "origin_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"blocked_until"}),
	}).Create(&BlockedOrigin{OriginID: originID, BlockedUntil: until}).Error
}

func (r *repository) IsOriginBlocked(ctx context.Context, originID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&BlockedOrigin{}).
		Where("origin_id = ? AND blocked_until > ?", originID, now).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) DeleteExpiredBlocks(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("blocked_until <= ?", now).Delete(&BlockedOrigin{})
	return res.RowsAffected, res.Error
}
