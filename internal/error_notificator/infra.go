package error_notificator

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Infra struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewInfra builds the Telegram alert channel. When TELEGRAM_ALERT_TOKEN is
// not configured the notificator stays disabled and Notify only logs.
func NewInfra() *Infra {
	token := os.Getenv("TELEGRAM_ALERT_TOKEN")
	if token == "" {
		return &Infra{}
	}

	chatID, err := strconv.ParseInt(os.Getenv("TELEGRAM_ALERT_CHAT_ID"), 10, 64)
	if err != nil {
		log.Printf("[error_notificator] invalid TELEGRAM_ALERT_CHAT_ID: %v", err)
		return &Infra{}
	}

	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		log.Printf("[error_notificator] bot init fail: %v", err)
		return &Infra{}
	}

	return &Infra{bot: bot, chatID: chatID}
}

func (i *Infra) Notify(ctx context.Context, err error, details string) error {
	if i.bot == nil {
		log.Printf("[error_notificator] (disabled) err=%v details=%s", err, details)
		return nil
	}

	text := fmt.Sprintf(
		"❗ voicechat error\n\nError: %v\n\nDetails: %s",
		err,
		details,
	)

	_, sendErr := i.bot.Send(tgbotapi.NewMessage(i.chatID, text))
	if sendErr != nil {
		log.Printf("[error_notificator] send fail: %v", sendErr)
		return sendErr
	}

	return nil
}
