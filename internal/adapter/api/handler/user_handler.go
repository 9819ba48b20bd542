package handler

import (
	"github.com/labstack/echo/v4"

	"eventcraft/internal/domain/entity"
	"eventcraft/internal/usecase"
	"eventcraft/pkg/response"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

type registerUserRequest struct {
	ID    string `json:"id"`
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=CUSTOMER VENDOR ADMIN"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req registerUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	user, err := h.userUseCase.Register(c.Request().Context(), usecase.RegisterUserInput{
		ID:    req.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  entity.Role(req.Role),
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, user)
}

func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.userUseCase.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, user)
}
