package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramGateway delivers messages through a Telegram bot.
type TelegramGateway struct {
	api *tgbotapi.BotAPI
}

func NewTelegramGateway(token string) (*TelegramGateway, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	log.Printf("Telegram gateway authorized on account %s", api.Self.UserName)
	return &TelegramGateway{api: api}, nil
}

// Send posts text to the chat. The Telegram client has no context support,
// so the call runs in a goroutine and the result is dropped if ctx expires
// first; the message is then treated as not delivered.
func (g *TelegramGateway) Send(ctx context.Context, chatID int64, text string) (Delivery, error) {
	type result struct {
		msg tgbotapi.Message
		err error
	}
	done := make(chan result, 1)
	go func() {
		msg, err := g.api.Send(tgbotapi.NewMessage(chatID, text))
		done <- result{msg: msg, err: err}
	}()

	select {
	case <-ctx.Done():
		return Delivery{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			return Delivery{}, fmt.Errorf("telegram send failed: %w", res.err)
		}
		return Delivery{Delivered: true, MessageID: res.msg.MessageID}, nil
	}
}
