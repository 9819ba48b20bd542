package repository

import (
	"context"

	"eventcraft/internal/domain/entity"
)

type VendorRepository interface {
	Create(ctx context.Context, vendor *entity.Vendor) error
	GetByID(ctx context.Context, id string) (*entity.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Vendor, error)
	GetByCompanyName(ctx context.Context, companyName string) (*entity.Vendor, error)
}
