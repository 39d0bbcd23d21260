package bot

import (
	"fmt"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/PaulSonOfLars/gotgbot/v2/ext"
	"github.com/PaulSonOfLars/gotgbot/v2/ext/handlers"

	"ad-reward-backend/internal/common/logger"
)

// Bot is the chat-side front end: a static welcome flow pointing users at
// the mini-app. It never touches the ledger.
type Bot struct {
	bot        *gotgbot.Bot
	updater    *ext.Updater
	miniAppURL string
}

func New(token, miniAppURL string) (*Bot, error) {
	b, err := gotgbot.NewBot(token, nil)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	wrapper := &Bot{
		bot:        b,
		miniAppURL: miniAppURL,
	}

	dispatcher := ext.NewDispatcher(&ext.DispatcherOpts{
		Error: func(bot *gotgbot.Bot, ctx *ext.Context, err error) ext.DispatcherAction {
			logger.Error().Err(err).Msg("Bot update handling failed")
			return ext.DispatcherActionNoop
		},
		MaxRoutines: ext.DefaultMaxRoutines,
	})
	dispatcher.AddHandler(handlers.NewCommand("start", wrapper.start))

	wrapper.updater = ext.NewUpdater(dispatcher, nil)

	return wrapper, nil
}

// Start begins long polling. It returns once polling is running.
func (b *Bot) Start() error {
	err := b.updater.StartPolling(b.bot, &ext.PollingOpts{
		DropPendingUpdates: true,
		GetUpdatesOpts: &gotgbot.GetUpdatesOpts{
			Timeout:        9,
			AllowedUpdates: []string{"message"},
			RequestOpts: &gotgbot.RequestOpts{
				Timeout: 10 * time.Second,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("start polling: %w", err)
	}

	logger.Info().Str("username", b.bot.User.Username).Msg("Bot polling started")
	return nil
}

func (b *Bot) Stop() {
	if err := b.updater.Stop(); err != nil {
		logger.Error().Err(err).Msg("Bot updater stop failed")
	}
}

func (b *Bot) start(bot *gotgbot.Bot, ctx *ext.Context) error {
	msg := ctx.EffectiveMessage
	user := ctx.EffectiveUser

	text := fmt.Sprintf(
		"👋 Welcome, %s!\n\n"+
			"Watch ads in the app and earn points for every completed view.\n"+
			"Your balance updates automatically.",
		user.FirstName,
	)

	keyboard := gotgbot.InlineKeyboardMarkup{
		InlineKeyboard: [][]gotgbot.InlineKeyboardButton{
			{
				{
					Text:   "🎬 Open App",
					WebApp: &gotgbot.WebAppInfo{Url: b.miniAppURL},
				},
			},
			{
				{
					Text: "🔗 Share",
					Url:  fmt.Sprintf("https://t.me/share/url?url=https://t.me/%s", bot.User.Username),
				},
			},
		},
	}

	_, err := msg.Reply(bot, text, &gotgbot.SendMessageOpts{
		ReplyMarkup: keyboard,
	})
	if err != nil {
		return fmt.Errorf("send welcome: %w", err)
	}

	return nil
}
