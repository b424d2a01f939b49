package balance

import (
	"sessionbot/bot/common"
	"sessionbot/service"
)

// historyLimit caps each list on the history view
const historyLimit = 5

// cardRenderer turns a payment link into a PNG
type cardRenderer interface {
	Render(url string, amount int64) ([]byte, error)
}

// Feature serves the wallet: balance, history, recharge links and payment verification
type Feature struct {
	messenger      common.Messenger
	userService    service.UserService
	paymentService service.PaymentService
	ledgerService  service.LedgerService
	states         common.StateStore
	cards          cardRenderer
}

func New(messenger common.Messenger, userService service.UserService, paymentService service.PaymentService, ledgerService service.LedgerService, states common.StateStore) *Feature {
	return &Feature{
		messenger:      messenger,
		userService:    userService,
		paymentService: paymentService,
		ledgerService:  ledgerService,
		states:         states,
		cards:          NewQRCardGenerator(),
	}
}
