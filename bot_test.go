package main

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turbekoff/calcpad/pkg/calculator"
)

func TestBotKeyboardKeysAreSupported(t *testing.T) {
	for _, row := range botKeyboard.InlineKeyboard {
		for _, btn := range row {
			require.NotNil(t, btn.CallbackData, btn.Text)
			assert.LessOrEqual(t, len(*btn.CallbackData), 64, btn.Text)
			assert.NoError(t, calculator.New().Press(*btn.CallbackData), btn.Text)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	calc := calculator.New()
	assert.Equal(t, "0\n\nANS: ", renderMessage(calc))

	require.NoError(t, calc.PressAll("7 + 3 ="))
	assert.Equal(t, "7 + 3\n= 10\n\nANS: 10", renderMessage(calc))

	require.NoError(t, calc.PressAll("x 2 ="))
	assert.Equal(t, "10 x 2\n= 20\n\n= 10\n\nANS: 20", renderMessage(calc))

	require.NoError(t, calc.PressAll("/ 0 ="))
	assert.Equal(t, "20 / 0\n= Error\n\n= 10\n= 20\n\nANS: 20", renderMessage(calc))

	require.NoError(t, calc.Press("5"))
	assert.Equal(t, "5\n\n= 20\n= Error\n\nANS: 20", renderMessage(calc))
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "-100_42", sessionKey(-100, 42))
}

func TestReply(t *testing.T) {
	msg := reply(42, "hello", false)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "hello", msg.Text)
	assert.Nil(t, msg.ReplyMarkup)

	msg = reply(42, "0", true)
	assert.Equal(t, botKeyboard, msg.ReplyMarkup)
}

func TestRedraw(t *testing.T) {
	callback := &tgbotapi.CallbackQuery{
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 42},
			Text:      "5 + 3",
		},
	}

	_, ok := redraw(callback, "5 + 3")
	assert.False(t, ok)

	edit, ok := redraw(callback, "5 + 3\n= 8")
	require.True(t, ok)
	assert.Equal(t, int64(42), edit.ChatID)
	assert.Equal(t, 7, edit.MessageID)
	assert.Equal(t, "5 + 3\n= 8", edit.Text)
	assert.Same(t, &botKeyboard, edit.ReplyMarkup)
}
