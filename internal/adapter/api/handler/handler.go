package handler

import (
	"eventcraft/internal/usecase"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Chat   *ChatHandler
	User   *UserHandler
	Vendor *VendorHandler
	Health *HealthHandler
}

func Setup(
	chatUseCase *usecase.ChatUseCase,
	userUseCase *usecase.UserUseCase,
	vendorUseCase *usecase.VendorUseCase,
	storage Pinger,
	driver string,
) *Handlers {
	return &Handlers{
		Chat:   NewChatHandler(chatUseCase),
		User:   NewUserHandler(userUseCase),
		Vendor: NewVendorHandler(vendorUseCase),
		Health: NewHealthHandler(storage, driver),
	}
}
