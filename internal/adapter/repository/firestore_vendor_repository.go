package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/pkg/errors"
)

type firestoreVendorRepository struct {
	client *firestore.Client
}

func NewFirestoreVendorRepository(client *firestore.Client) repository.VendorRepository {
	return &firestoreVendorRepository{
		client: client,
	}
}

func (r *firestoreVendorRepository) Create(ctx context.Context, vendor *entity.Vendor) error {
	if vendor.ID == "" {
		vendor.ID = uuid.New().String()
	}
	if vendor.CreatedAt.IsZero() {
		vendor.CreatedAt = time.Now().UTC()
	}

	_, err := r.client.Collection("vendors").Doc(vendor.ID).Create(ctx, vendor)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Vendor already exists")
		}
		return errors.Internal("Failed to create vendor", err)
	}
	return nil
}

func (r *firestoreVendorRepository) GetByID(ctx context.Context, id string) (*entity.Vendor, error) {
	doc, err := r.client.Collection("vendors").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Vendor", nil)
		}
		return nil, errors.Internal("Failed to get vendor", err)
	}

	var vendor entity.Vendor
	if err := doc.DataTo(&vendor); err != nil {
		return nil, errors.Internal("Failed to parse vendor data", err)
	}
	return &vendor, nil
}

func (r *firestoreVendorRepository) GetByUserID(ctx context.Context, userID string) (*entity.Vendor, error) {
	return r.findOne(ctx, "userId", userID)
}

func (r *firestoreVendorRepository) GetByCompanyName(ctx context.Context, companyName string) (*entity.Vendor, error) {
	return r.findOne(ctx, "companyName", companyName)
}

func (r *firestoreVendorRepository) findOne(ctx context.Context, field, value string) (*entity.Vendor, error) {
	iter := r.client.Collection("vendors").Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Vendor", nil)
		}
		return nil, errors.Internal("Failed to query vendor", err)
	}

	var vendor entity.Vendor
	if err := doc.DataTo(&vendor); err != nil {
		return nil, errors.Internal("Failed to parse vendor data", err)
	}
	vendor.ID = doc.Ref.ID
	return &vendor, nil
}
