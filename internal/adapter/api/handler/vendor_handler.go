package handler

import (
	"github.com/labstack/echo/v4"

	"eventcraft/internal/usecase"
	"eventcraft/pkg/response"
)

type VendorHandler struct {
	vendorUseCase *usecase.VendorUseCase
}

func NewVendorHandler(vendorUseCase *usecase.VendorUseCase) *VendorHandler {
	return &VendorHandler{
		vendorUseCase: vendorUseCase,
	}
}

type registerVendorRequest struct {
	UserID      string `json:"userId" validate:"required"`
	CompanyName string `json:"companyName" validate:"required,max=120"`
	Category    string `json:"category"`
}

// GetByUserID handles GET /vendor?byUserId=
func (h *VendorHandler) GetByUserID(c echo.Context) error {
	vendor, err := h.vendorUseCase.GetByUserID(c.Request().Context(), c.QueryParam("byUserId"))
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, vendor)
}

func (h *VendorHandler) Register(c echo.Context) error {
	var req registerVendorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return response.Error(c, err)
	}

	vendor, err := h.vendorUseCase.Register(c.Request().Context(), usecase.RegisterVendorInput{
		UserID:      req.UserID,
		CompanyName: req.CompanyName,
		Category:    req.Category,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, vendor)
}
