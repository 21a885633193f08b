// Package telegram wraps the Bot API used to deliver messages and receive updates.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Button is one inline action. Data carries an action token; URL, when set,
// makes it a link button instead.
type Button struct {
	Text string
	Data string
	URL  string
}

// Message is an outbound chat message with an optional inline keyboard.
type Message struct {
	ChatID  int64
	Text    string
	Buttons [][]Button
}

// Sender delivers messages and acknowledges callback queries.
type Sender interface {
	Send(ctx context.Context, msg Message) (int, error)
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// Gateway is the Bot API backed Sender.
type Gateway struct {
	api *tgbotapi.BotAPI
}

// NewGateway authorizes the bot. Every request is bounded by timeout.
func NewGateway(token, endpoint string, timeout time.Duration) (*Gateway, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	client := &http.Client{Timeout: timeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	return &Gateway{api: api}, nil
}

// Username returns the bot account name.
func (g *Gateway) Username() string {
	return g.api.Self.UserName
}

func (g *Gateway) Send(ctx context.Context, msg Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	if markup, ok := keyboard(msg.Buttons); ok {
		out.ReplyMarkup = markup
	}
	sent, err := g.api.Send(out)
	if err != nil {
		return 0, Classify(err)
	}
	return sent.MessageID, nil
}

func (g *Gateway) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := g.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return Classify(err)
	}
	return nil
}

// SetWebhook registers url for update delivery. A non-empty secret is echoed
// back by Telegram in the X-Telegram-Bot-Api-Secret-Token header.
func (g *Gateway) SetWebhook(url, secret string) error {
	params := tgbotapi.Params{}
	params.AddNonEmpty("url", url)
	params.AddNonEmpty("secret_token", secret)
	if _, err := g.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// DeleteWebhook switches the bot back to getUpdates.
func (g *Gateway) DeleteWebhook() error {
	if _, err := g.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// Updates starts long polling. The channel closes after StopUpdates.
func (g *Gateway) Updates(timeoutSeconds int) tgbotapi.UpdatesChannel {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	return g.api.GetUpdatesChan(cfg)
}

func (g *Gateway) StopUpdates() {
	g.api.StopReceivingUpdates()
}

func keyboard(rows [][]Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var out [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		if len(buttons) > 0 {
			out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
	}
	if len(out) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...), true
}

// IsPermanent reports whether err is a delivery failure that retrying cannot fix.
func IsPermanent(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de) && de.Kind == Permanent
}
