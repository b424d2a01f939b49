package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"sessionbot/bot/common"
	"sessionbot/bot/features/admin"
	"sessionbot/bot/features/balance"
	"sessionbot/bot/features/menu"
	"sessionbot/bot/features/numbers"
	"sessionbot/events"
	"sessionbot/service"
	"sessionbot/session"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	log "github.com/sirupsen/logrus"
)

// Each update is handled under its own deadline
const updateTimeout = 15 * time.Second

// HandlerFunc handles one update under the update deadline
type HandlerFunc func(ctx context.Context, update telego.Update) error

// Config holds bot configuration
type Config struct {
	Token         string
	SupportURL    string
	LogChannelID  int64
	ReferralBonus int64
}

// Services are the domain services the handlers call
type Services struct {
	User       service.UserService
	Inventory  service.InventoryService
	Allocation service.AllocationService
	Ledger     service.LedgerService
	OTP        service.OTPService
	Payment    service.PaymentService
}

type Bot struct {
	config    Config
	api       *telego.Bot
	messenger common.Messenger
	handler   *th.BotHandler
	cancel    context.CancelFunc
	states    common.StateStore

	menu     *menu.Feature
	balance  *balance.Feature
	numbers  *numbers.Feature
	admin    *admin.Feature
	notifier *Notifier
}

func New(config Config, services Services, states common.StateStore, eventBus *events.Bus) (*Bot, error) {
	api, err := telego.NewBot(config.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		config:    config,
		api:       api,
		messenger: api,
		states:    states,
		menu:      menu.New(api, services.User, config.SupportURL, config.ReferralBonus),
		balance:   balance.New(api, services.User, services.Payment, services.Ledger, states),
		numbers:   numbers.New(api, services.User, services.Inventory, services.Allocation, services.OTP, config.SupportURL),
		admin: admin.New(api, telegramFiles{bot: api}, states, admin.Deps{
			UserService:       services.User,
			InventoryService:  services.Inventory,
			AllocationService: services.Allocation,
			LedgerService:     services.Ledger,
			OTPService:        services.OTP,
		}),
		notifier: NewNotifier(api, config.LogChannelID),
	}

	bot.notifier.Subscribe(eventBus)
	return bot, nil
}

// Start begins long polling and dispatching updates in the background
func (b *Bot) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	updates, err := b.api.UpdatesViaLongPolling(ctx, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	handler, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create update handler: %w", err)
	}
	b.handler = handler
	b.registerHandlers()

	go func() {
		if err := handler.Start(); err != nil {
			log.WithError(err).Error("Telegram update handler stopped")
		}
	}()

	log.Info("Telegram bot started")
	return nil
}

// Stop stops polling and waits for in-flight handlers
func (b *Bot) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.handler != nil {
		_ = b.handler.Stop()
	}
	log.Info("Telegram bot stopped")
}

func (b *Bot) registerHandlers() {
	h := b.handler

	// Commands
	h.Handle(b.route("start", b.menu.HandleStart), th.CommandEqual("start"))
	h.Handle(b.route("balance", b.balance.HandleBalance), th.CommandEqual("balance"))
	h.Handle(b.route("history", b.balance.HandleHistory), th.CommandEqual("history"))
	h.Handle(b.route("addfile", b.admin.HandleAddFile), th.CommandEqual("addfile"))
	h.Handle(b.route("ban", b.admin.HandleBan), th.CommandEqual("ban"))
	h.Handle(b.route("unban", b.admin.HandleUnban), th.CommandEqual("unban"))
	h.Handle(b.route("addsudo", b.admin.HandleAddSudo), th.CommandEqual("addsudo"))
	h.Handle(b.route("addbalance", b.admin.HandleAddBalance), th.CommandEqual("addbalance"))
	h.Handle(b.route("readotp", b.admin.HandleReadOTP), th.CommandEqual("readotp"))
	h.Handle(b.route("stock", b.admin.HandleStock), th.CommandEqual("stock"))
	h.Handle(b.route("reconcile", b.admin.HandleReconcile), th.CommandEqual("reconcile"))

	// Menu callbacks
	h.Handle(b.route("main_menu", b.menu.HandleMainMenu), th.CallbackDataEqual(common.CallbackMainMenu))
	h.Handle(b.route("profile", b.menu.HandleProfile), th.CallbackDataEqual(common.CallbackProfile))
	h.Handle(b.route("how_to_use", b.menu.HandleHowToUse), th.CallbackDataEqual(common.CallbackHowToUse))
	h.Handle(b.route("balance_cb", b.balance.HandleBalance), th.CallbackDataEqual(common.CallbackBalance))
	h.Handle(b.route("recharge", b.balance.HandleRecharge), th.CallbackDataEqual(common.CallbackRecharge))
	h.Handle(b.route("history_cb", b.balance.HandleHistory), th.CallbackDataEqual(common.CallbackHistory))
	h.Handle(b.route("get_number", b.numbers.HandleGetNumber), th.CallbackDataEqual(common.CallbackGetNumber))

	// Parameterised callbacks
	h.Handle(b.route("platform", b.numbers.HandlePlatform), th.CallbackDataPrefix(common.PrefixPlatform))
	h.Handle(b.route("country", b.numbers.HandleCountry), th.CallbackDataPrefix(common.PrefixCountry))
	h.Handle(b.route("read_otp", b.numbers.HandleReadOTP), th.CallbackDataPrefix(common.PrefixReadOTP))
	h.Handle(b.route("payment_done", b.balance.HandlePaymentDone), th.CallbackDataPrefix(common.PrefixPaymentDone))

	// Documents and free text, routed by conversation state
	h.Handle(b.route("message", b.handleMessage), th.AnyMessage())
}

// route applies the update deadline and logs handler errors. Errors never reach telego.
func (b *Bot) route(name string, fn HandlerFunc) th.Handler {
	return func(ctx *th.Context, update telego.Update) error {
		reqCtx, cancel := context.WithTimeout(ctx, updateTimeout)
		defer cancel()

		if err := fn(reqCtx, update); err != nil {
			log.WithFields(log.Fields{
				"handler":  name,
				"updateID": update.UpdateID,
				"error":    err,
			}).Error("Failed to handle update")
		}
		return nil
	}
}

func (b *Bot) handleMessage(ctx context.Context, update telego.Update) error {
	message := update.Message
	if message == nil || message.From == nil {
		return nil
	}

	if message.Document != nil {
		return b.admin.HandleDocument(ctx, update)
	}

	text := strings.TrimSpace(message.Text)
	if text == "" || strings.HasPrefix(text, "/") {
		return nil
	}

	state, err := b.states.Get(ctx, message.From.ID)
	if err != nil {
		return fmt.Errorf("failed to load conversation state: %w", err)
	}
	if state == nil {
		return nil
	}

	switch state.Step {
	case session.StepAwaitingRechargeAmount:
		return b.balance.HandleAmount(ctx, update)
	case session.StepAwaitingFile:
		common.Reply(ctx, b.messenger, message.From.ID, "📁 Please send the ZIP file as a document.", nil)
	}
	return nil
}
