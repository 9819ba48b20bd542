package usecase

import (
	"context"
	"strings"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/pkg/errors"
	"eventcraft/pkg/logger"
)

type VendorUseCase struct {
	vendorRepo repository.VendorRepository
	userRepo   repository.UserRepository
}

func NewVendorUseCase(vendorRepo repository.VendorRepository, userRepo repository.UserRepository) *VendorUseCase {
	return &VendorUseCase{
		vendorRepo: vendorRepo,
		userRepo:   userRepo,
	}
}

type RegisterVendorInput struct {
	UserID      string
	CompanyName string
	Category    string
}

// Register creates the vendor entity backing a VENDOR-role user. A user owns
// at most one vendor.
func (uc *VendorUseCase) Register(ctx context.Context, input RegisterVendorInput) (*entity.Vendor, error) {
	name := strings.TrimSpace(input.CompanyName)
	if strings.EqualFold(name, entity.SupportCompanyName) {
		return nil, errors.BadRequest("Company name is reserved", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, input.UserID); err != nil {
		return nil, err
	}
	if existing, err := uc.vendorRepo.GetByUserID(ctx, input.UserID); err == nil {
		logger.Warn("RegisterVendor: user %s already owns vendor %s", input.UserID, existing.ID)
		return nil, errors.Conflict("User already owns a vendor")
	} else if !errors.Is(err, errors.CodeNotFound) {
		return nil, err
	}

	vendor := &entity.Vendor{
		UserID:      input.UserID,
		CompanyName: name,
		Category:    strings.TrimSpace(input.Category),
	}
	if err := uc.vendorRepo.Create(ctx, vendor); err != nil {
		return nil, err
	}
	return vendor, nil
}

func (uc *VendorUseCase) GetByUserID(ctx context.Context, userID string) (*entity.Vendor, error) {
	if userID == "" {
		return nil, errors.BadRequest("byUserId is required", nil)
	}
	return uc.vendorRepo.GetByUserID(ctx, userID)
}
