package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/gigforge/gig-service/app/models"
)

// gigRepository implements GigRepository using the relational record store.
type gigRepository struct {
	db *gorm.DB
}

// NewGigRepository creates a new record-store repository for gigs
func NewGigRepository(db *gorm.DB) GigRepository {
	return &gigRepository{db: db}
}

func (r *gigRepository) Create(gig *models.Gig) error {
	return r.db.Create(gig).Error
}

// GetByID returns the gig or nil when it is missing or soft-deleted.
func (r *gigRepository) GetByID(id string) (*models.Gig, error) {
	var gig models.Gig
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&gig).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gig, nil
}

func (r *gigRepository) Update(gig *models.Gig) error {
	return r.db.Save(gig).Error
}

// SoftDelete marks the gig deleted in a single guarded update so deletedAt
// is only ever set once. Returns nil when the gig is missing or already
// deleted.
func (r *gigRepository) SoftDelete(id string) (*models.Gig, error) {
	now := time.Now().UTC()
	result := r.db.Model(&models.Gig{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var gig models.Gig
	if err := r.db.Where("id = ?", id).First(&gig).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

// ApplyRating increments the aggregate counters and the histogram bucket
// for the rating value with atomic column expressions, then re-reads the
// record for index propagation.
func (r *gigRepository) ApplyRating(id string, rating int) (*models.Gig, error) {
	valueColumn, countColumn, err := models.BucketColumns(rating)
	if err != nil {
		return nil, err
	}

	result := r.db.Model(&models.Gig{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumns(map[string]interface{}{
			"ratings_count": gorm.Expr("ratings_count + ?", 1),
			"rating_sum":    gorm.Expr("rating_sum + ?", rating),
			valueColumn:     gorm.Expr(valueColumn+" + ?", rating),
			countColumn:     gorm.Expr(countColumn+" + ?", 1),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}

	var gig models.Gig
	if err := r.db.Where("id = ?", id).First(&gig).Error; err != nil {
		return nil, err
	}
	return &gig, nil
}

// AdjustActiveOrderCount applies the delta as a single conditional update.
// Increments are unconditional; decrements carry the floor guard in the
// WHERE clause so a would-be underflow affects zero rows instead of racing
// a read-modify-write.
func (r *gigRepository) AdjustActiveOrderCount(id string, delta int64) error {
	if delta == 0 {
		return nil
	}

	query := r.db.Model(&models.Gig{})
	if delta > 0 {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("id = ? AND active_order_count >= ?", id, -delta)
	}

	// Zero affected rows on a decrement means the counter already settled;
	// this is deliberately not an error.
	return query.UpdateColumn("active_order_count", gorm.Expr("active_order_count + ?", delta)).Error
}

func (r *gigRepository) GetBySeller(sellerID string) ([]models.Gig, error) {
	var gigs []models.Gig
	err := r.db.Where("seller_id = ? AND is_deleted = ?", sellerID, false).Find(&gigs).Error
	return gigs, err
}

// BulkUpdateProfilePicture overwrites the denormalized picture on every
// non-deleted gig of the seller and returns the refreshed records for
// reindexing.
func (r *gigRepository) BulkUpdateProfilePicture(sellerID, profilePicture string) ([]models.Gig, error) {
	err := r.db.Model(&models.Gig{}).
		Where("seller_id = ? AND is_deleted = ?", sellerID, false).
		UpdateColumn("profile_picture", profilePicture).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySeller(sellerID)
}

func (r *gigRepository) GetAllNotDeleted() ([]models.Gig, error) {
	var gigs []models.Gig
	err := r.db.Where("is_deleted = ?", false).Find(&gigs).Error
	return gigs, err
}

func (r *gigRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Gig{}).Where("is_deleted = ?", false).Count(&count).Error
	return count, err
}

func (r *gigRepository) Transaction(fn func(txRepo GigRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gigRepository{db: tx})
	})
}
