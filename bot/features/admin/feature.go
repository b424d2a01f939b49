package admin

import (
	"sessionbot/bot/common"
	"sessionbot/service"
)

// Bot API downloads are capped at 20 MB
const maxUploadBytes = 20 << 20

// Feature serves admin commands: uploads, bans, roles, balance fixes and reports
type Feature struct {
	messenger         common.Messenger
	files             common.FileFetcher
	states            common.StateStore
	userService       service.UserService
	inventoryService  service.InventoryService
	allocationService service.AllocationService
	ledgerService     service.LedgerService
	otpService        service.OTPService
}

// Deps groups the services the admin commands use
type Deps struct {
	UserService       service.UserService
	InventoryService  service.InventoryService
	AllocationService service.AllocationService
	LedgerService     service.LedgerService
	OTPService        service.OTPService
}

func New(messenger common.Messenger, files common.FileFetcher, states common.StateStore, deps Deps) *Feature {
	return &Feature{
		messenger:         messenger,
		files:             files,
		states:            states,
		userService:       deps.UserService,
		inventoryService:  deps.InventoryService,
		allocationService: deps.AllocationService,
		ledgerService:     deps.LedgerService,
		otpService:        deps.OTPService,
	}
}
