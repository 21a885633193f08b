package telegram

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       Kind
		retryAfter time.Duration
	}{
		{
			name:       "rate limited",
			err:        &tgbotapi.Error{Code: 429, Message: "Too Many Requests", ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 7}},
			kind:       RateLimited,
			retryAfter: 7 * time.Second,
		},
		{name: "blocked", err: &tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"}, kind: Permanent},
		{name: "bad request", err: &tgbotapi.Error{Code: 400, Message: "Bad Request: chat not found"}, kind: Permanent},
		{name: "server error", err: &tgbotapi.Error{Code: 502, Message: "Bad Gateway"}, kind: Transient},
		{name: "network", err: errors.New("dial tcp: i/o timeout"), kind: Transient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var de *DeliveryError
			require.ErrorAs(t, Classify(tt.err), &de)
			assert.Equal(t, tt.kind, de.Kind)
			assert.Equal(t, tt.retryAfter, de.RetryAfter)
			assert.ErrorIs(t, de, tt.err)
		})
	}
}

func TestKeyboard(t *testing.T) {
	_, ok := keyboard(nil)
	assert.False(t, ok)

	markup, ok := keyboard([][]Button{
		{{Text: "Done", Data: "task:1:done"}, {Text: "Skip", Data: "task:1:skip"}},
		{{Text: "Open", URL: "https://example.com/dashboard"}},
	})
	require.True(t, ok)
	require.Len(t, markup.InlineKeyboard, 2)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "task:1:done", *markup.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, markup.InlineKeyboard[1][0].URL)
	assert.Equal(t, "https://example.com/dashboard", *markup.InlineKeyboard[1][0].URL)
}
