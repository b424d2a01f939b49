package numbers

import (
	"sessionbot/bot/common"
	"sessionbot/service"
)

// Feature serves the buy-number flow and code reveals
type Feature struct {
	messenger         common.Messenger
	userService       service.UserService
	inventoryService  service.InventoryService
	allocationService service.AllocationService
	otpService        service.OTPService
	supportURL        string
}

func New(messenger common.Messenger, userService service.UserService, inventoryService service.InventoryService, allocationService service.AllocationService, otpService service.OTPService, supportURL string) *Feature {
	return &Feature{
		messenger:         messenger,
		userService:       userService,
		inventoryService:  inventoryService,
		allocationService: allocationService,
		otpService:        otpService,
		supportURL:        supportURL,
	}
}
