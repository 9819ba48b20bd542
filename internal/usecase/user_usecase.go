package usecase

import (
	"context"
	"strings"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/domain/repository"
	"eventcraft/pkg/errors"
)

type UserUseCase struct {
	userRepo repository.UserRepository
}

func NewUserUseCase(userRepo repository.UserRepository) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
	}
}

type RegisterUserInput struct {
	ID    string
	Name  string
	Email string
	Role  entity.Role
}

func (uc *UserUseCase) Register(ctx context.Context, input RegisterUserInput) (*entity.User, error) {
	if input.ID != "" {
		if _, err := uc.userRepo.GetByID(ctx, input.ID); err == nil {
			return nil, errors.Conflict("User already exists")
		}
	}

	role := entity.Role(strings.ToUpper(string(input.Role)))
	if role == "" {
		role = entity.RoleCustomer
	}

	user := &entity.User{
		ID:    input.ID,
		Name:  strings.TrimSpace(input.Name),
		Email: strings.ToLower(strings.TrimSpace(input.Email)),
		Role:  role,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
