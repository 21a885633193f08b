package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"life-planner/internal/model"
)

// PartnerRepository reads accountability partners.
type PartnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// ListReportRecipients returns active partners that receive weekly reports.
func (r *PartnerRepository) ListReportRecipients(ctx context.Context, userID string) ([]model.AccountabilityPartner, error) {
	var partners []model.AccountabilityPartner
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND receives_weekly_reports = ?", userID, true, true).
		Order("id ASC").
		Find(&partners).Error; err != nil {
		return nil, fmt.Errorf("list partners: %w", err)
	}
	return partners, nil
}

func (r *PartnerRepository) Create(ctx context.Context, p *model.AccountabilityPartner) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create partner: %w", err)
	}
	return nil
}
