package telegram

import (
	"context"
	"fmt"

	"github.com/desertthunder/spotybot/internal/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// API is the subset of [tgbotapi.BotAPI] used to send messages.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger sends bot output through the Telegram Bot API.
//
// The client library does not take a context, so a cancelled context only prevents new sends.
type Messenger struct {
	api API
}

// NewMessenger creates a [Messenger].
func NewMessenger(api API) *Messenger {
	return &Messenger{api: api}
}

// SendText sends a text message, formatted with parseMode when it is not empty.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text, parseMode string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = parseMode
	return m.send(ctx, "message", msg)
}

// SendImage sends the image at url as a photo.
func (m *Messenger) SendImage(ctx context.Context, chatID int64, url string) error {
	return m.send(ctx, "photo", tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url)))
}

// SendAudio sends the audio file at url.
func (m *Messenger) SendAudio(ctx context.Context, chatID int64, url string) error {
	return m.send(ctx, "audio", tgbotapi.NewAudio(chatID, tgbotapi.FileURL(url)))
}

// SendChoices sends prompt with one inline button per choice.
func (m *Messenger) SendChoices(ctx context.Context, chatID int64, prompt string, choices []models.Choice) error {
	msg := tgbotapi.NewMessage(chatID, prompt)
	if len(choices) > 0 {
		msg.ReplyMarkup = keyboard(choices)
	}
	return m.send(ctx, "choices", msg)
}

// AckCallback answers a callback query so the client stops its loading indicator.
func (m *Messenger) AckCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("answering telegram callback: %w", err)
	}
	return nil
}

func (m *Messenger) send(ctx context.Context, kind string, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := m.api.Send(c); err != nil {
		return fmt.Errorf("sending telegram %s: %w", kind, err)
	}
	return nil
}

func keyboard(choices []models.Choice) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Payload)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
