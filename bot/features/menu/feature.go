package menu

import (
	"sessionbot/bot/common"
	"sessionbot/service"
)

// Feature serves /start, the main menu, the profile card and the help text
type Feature struct {
	messenger     common.Messenger
	userService   service.UserService
	supportURL    string
	referralBonus int64
}

func New(messenger common.Messenger, userService service.UserService, supportURL string, referralBonus int64) *Feature {
	return &Feature{
		messenger:     messenger,
		userService:   userService,
		supportURL:    supportURL,
		referralBonus: referralBonus,
	}
}
