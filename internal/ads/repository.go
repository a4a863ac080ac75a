package ads

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrAdNotFound = errors.New("ad not found")

type Repository interface {
	Create(ctx context.Context, ad *Ad) error
	FindByID(ctx context.Context, id uint) (*Ad, error)
	FindApproved(ctx context.Context, limit, offset int) ([]Ad, error)
	FindAll(ctx context.Context, limit, offset int) ([]Ad, error)
	FindByUserID(ctx context.Context, userID uint) ([]Ad, error)
	Search(ctx context.Context, query string, limit, offset int) ([]Ad, error)
	FindByProvince(ctx context.Context, province string, limit, offset int) ([]Ad, error)
	FindByPropertyType(ctx context.Context, propertyType PropertyType, limit, offset int) ([]Ad, error)
	Update(ctx context.Context, ad *Ad) error
	UpdateStatus(ctx context.Context, id uint, status Status, adminNotes *string) error
	UpdateRating(ctx context.Context, id uint, stars int) error
	IncrementViewCount(ctx context.Context, id uint) error
	IncrementClickCount(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	GetStats(ctx context.Context) (*Stats, error)

	// Guard support.
	FindAdOwner(ctx context.Context, adID uint) (uint, error)
	CountAdsByUser(ctx context.Context, userID uint) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, ad *Ad) error {
	return r.db.WithContext(ctx).Create(ad).Error
}

func (r *repository) FindByID(ctx context.Context, id uint) (*Ad, error) {
	var ad Ad
	if err := r.db.WithContext(ctx).First(&ad, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdNotFound
		}
		return nil, err
	}
	return &ad, nil
}

func (r *repository) FindApproved(ctx context.Context, limit, offset int) ([]Ad, error) {
	var ads []Ad
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusApproved).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, err
}

func (r *repository) FindAll(ctx context.Context, limit, offset int) ([]Ad, error) {
	var ads []Ad
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, err
}

func (r *repository) FindByUserID(ctx context.Context, userID uint) ([]Ad, error) {
	var ads []Ad
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&ads).Error
	return ads, err
}

func (r *repository) Search(ctx context.Context, query string, limit, offset int) ([]Ad, error) {
	var ads []Ad
	pattern := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("status = ?", StatusApproved).
		Where("title ILIKE ? OR description ILIKE ? OR address ILIKE ? OR city ILIKE ?",
			pattern, pattern, pattern, pattern).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, err
}

func (r *repository) FindByProvince(ctx context.Context, province string, limit, offset int) ([]Ad, error) {
	var ads []Ad
	err := r.db.WithContext(ctx).
		Where("status = ? AND province = ?", StatusApproved, province).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, err
}

func (r *repository) FindByPropertyType(ctx context.Context, propertyType PropertyType, limit, offset int) ([]Ad, error) {
	var ads []Ad
	err := r.db.WithContext(ctx).
		Where("status = ? AND property_type = ?", StatusApproved, propertyType).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&ads).Error
	return ads, err
}

func (r *repository) Update(ctx context.Context, ad *Ad) error {
	return r.db.WithContext(ctx).Save(ad).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uint, status Status, adminNotes *string) error {
	fields := map[string]interface{}{"status": status}
	if adminNotes != nil {
		fields["admin_notes"] = *adminNotes
	}
	res := r.db.WithContext(ctx).Model(&Ad{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *repository) UpdateRating(ctx context.Context, id uint, stars int) error {
	res := r.db.WithContext(ctx).Model(&Ad{}).Where("id = ?", id).Update("rating", stars)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *repository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&Ad{}).Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *repository) IncrementClickCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&Ad{}).Where("id = ?", id).
		UpdateColumn("click_count", gorm.Expr("click_count + 1")).Error
}

func (r *repository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&Ad{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAdNotFound
	}
	return nil
}

func (r *repository) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	db := r.db.WithContext(ctx).Model(&Ad{})

	if err := db.Count(&stats.TotalAds).Error; err != nil {
		return nil, err
	}
	for status, dst := range map[Status]*int64{
		StatusApproved: &stats.ApprovedAds,
		StatusPending:  &stats.PendingAds,
		StatusRejected: &stats.RejectedAds,
	} {
		if err := r.db.WithContext(ctx).Model(&Ad{}).Where("status = ?", status).Count(dst).Error; err != nil {
			return nil, err
		}
	}

	type sums struct {
		Views  int64
		Clicks int64
	}
	var s sums
	if err := r.db.WithContext(ctx).Model(&Ad{}).
		Select("COALESCE(SUM(view_count),0) as views, COALESCE(SUM(click_count),0) as clicks").
		Scan(&s).Error; err != nil {
		return nil, err
	}
	stats.TotalViews = s.Views
	stats.TotalClicks = s.Clicks
	return &stats, nil
}

func (r *repository) FindAdOwner(ctx context.Context, adID uint) (uint, error) {
	ad, err := r.FindByID(ctx, adID)
	if err != nil {
		return 0, err
	}
	return ad.UserID, nil
}

func (r *repository) CountAdsByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Ad{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
