package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/turbekoff/calcpad/pkg/calculator"
)

var (
	ErrClosed         = errors.New("bot has closed")
	ErrSessionExpired = errors.New("session has expired")
	ErrAlreadyStarted = errors.New("bot already started")
)

func button(label, key string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(label, key)
}

var botKeyboard = tgbotapi.NewInlineKeyboardMarkup(
	tgbotapi.NewInlineKeyboardRow(
		button("AC", calculator.KeyClear),
		button("⌫", calculator.KeyBackspace),
		button("( )", calculator.KeyParen),
		button("÷", "/"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("7", "7"),
		button("8", "8"),
		button("9", "9"),
		button("×", "x"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("4", "4"),
		button("5", "5"),
		button("6", "6"),
		button("-", "-"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("1", "1"),
		button("2", "2"),
		button("3", "3"),
		button("+", "+"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("±", calculator.KeySign),
		button("0", "0"),
		button(".", "."),
		button("=", calculator.KeyEquals),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("sin", "sin"),
		button("cos", "cos"),
		button("tan", "tan"),
		button("√", "sqrt"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("log", "log"),
		button("ln", "ln"),
		button("x²", "sq"),
		button("xʸ", "^"),
	),
	tgbotapi.NewInlineKeyboardRow(
		button("π", "pi"),
		button("e", "e"),
		button("ANS", calculator.KeyAns),
	),
)

type Bot struct {
	mc         *Memcached[*calculator.Calculator]
	api        *tgbotapi.BotAPI
	config     *TelegramConfig
	welcome    string
	help       string
	isStarted  atomic.Bool
	inShutdown atomic.Bool
	isDone     chan struct{}
	logger     *log.Logger
}

func LoadBot(config *TelegramConfig, logger *log.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(config.BotToken)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:    api,
		config: config,
		logger: logger,
		isDone: make(chan struct{}),
		mc: NewMemcached[*calculator.Calculator](
			config.SessionTTLTimeout,
			config.SessionCleanupTimeout,
		),
		welcome: fmt.Sprintf(
			"%s%s %s of inactivity.",
			"Welcome! Type /open to get a calculator.\n",
			"Note: the session expires after",
			config.SessionTTLTimeout,
		),
		help: strings.Join([]string{
			"Help:",
			"/start - welcome message.",
			"/open - open new session.",
			"/close - close the current session.",
			"/help - send this message.",
		}, "\n"),
	}, nil
}

func (b *Bot) Run() error {
	if b.isStarted.Swap(true) {
		return ErrAlreadyStarted
	}
	defer close(b.isDone)

	updateConfig := tgbotapi.NewUpdate(b.config.BotOffset)
	updateConfig.Timeout = b.config.BotTimeout
	updates := b.api.GetUpdatesChan(updateConfig)

	for update := range updates {
		if b.inShutdown.Load() && b.mc.IsEmpty() {
			continue
		}

		if update.CallbackQuery != nil {
			if err := b.handleCallback(update.CallbackQuery); err != nil {
				b.logger.Printf("failed to handle callback, error: %v", err)
				continue
			}
		}

		if update.Message == nil {
			continue
		}

		if err := b.handleCommand(update.Message); err != nil {
			b.logger.Printf("failed to send message, error: %v", err)
		}
	}

	return ErrClosed
}

// reply builds a message to chatID, with the keypad attached when keypad is set.
func reply(chatID int64, text string, keypad bool) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	if keypad {
		msg.ReplyMarkup = botKeyboard
	}
	return msg
}

// redraw builds an edit of the keypad message under callback. ok is false
// when the text is unchanged, since Telegram rejects no-op edits.
func redraw(callback *tgbotapi.CallbackQuery, text string) (edit tgbotapi.EditMessageTextConfig, ok bool) {
	if text == callback.Message.Text {
		return edit, false
	}

	edit = tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, text)
	edit.ReplyMarkup = &botKeyboard
	return edit, true
}

func (b *Bot) send(c tgbotapi.Chattable) error {
	_, err := b.api.Send(c)
	return err
}

func (b *Bot) updateKeyboard(callback *tgbotapi.CallbackQuery, text string) error {
	edit, ok := redraw(callback, text)
	if !ok {
		return nil
	}
	return b.send(edit)
}

func sessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d_%d", chatID, userID)
}

func (b *Bot) handleCommand(command *tgbotapi.Message) error {
	if command.From == nil {
		return nil
	}
	key := sessionKey(command.Chat.ID, command.From.ID)

	switch command.Command() {
	case "start":
		return b.send(reply(command.Chat.ID, b.welcome, false))
	case "help":
		return b.send(reply(command.Chat.ID, b.help, false))
	case "open":
		if _, ok := b.mc.Get(key); ok {
			return b.send(reply(command.Chat.ID, "Your session is not expired!", false))
		}

		calc := calculator.New()
		err := b.send(reply(command.Chat.ID, renderMessage(calc), true))
		if err == nil {
			b.mc.Set(key, calc)
		}
		return err
	case "close":
		b.mc.Delete(key)
		return b.send(reply(command.Chat.ID, "Session closed. Type /open to start again.", false))
	default:
		return b.send(reply(command.Chat.ID, "Unknown command. Try /help", false))
	}
}

func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) error {
	if _, err := b.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		return err
	}
	if callback.Message == nil || callback.From == nil {
		return calculator.ErrUnsupported
	}

	key := sessionKey(callback.Message.Chat.ID, callback.From.ID)
	calc, ok := b.mc.Get(key)
	if !ok {
		err := b.updateKeyboard(
			callback,
			"Your session has expired, please /open a new one.",
		)
		if err != nil {
			return err
		}
		return ErrSessionExpired
	}

	if err := calc.Press(callback.Data); err != nil {
		return fmt.Errorf("key %q: %w", callback.Data, err)
	}
	if err := calc.Err(); err != nil && calc.JustCalculated() {
		b.logger.Printf("calculation failed for %s, error: %v", key, err)
	}

	err := b.updateKeyboard(callback, renderMessage(calc))
	if err == nil {
		b.mc.Set(key, calc)
	}
	return err
}

// renderMessage is the chat text: the display, up to two earlier results and
// the ANS status.
func renderMessage(calc *calculator.Calculator) string {
	lines := []string{calc.Display()}

	history := calc.History()
	if calc.JustCalculated() && len(history) > 0 {
		history = history[:len(history)-1]
	}
	if n := len(history); n > 2 {
		history = history[n-2:]
	}
	if len(history) > 0 {
		lines = append(lines, "", strings.Join(history, "\n"))
	}

	lines = append(lines, "", calc.Status())
	return strings.Join(lines, "\n")
}

// Shutdown stops taking new sessions, lets open ones run until they expire
// and then stops polling. Sessions still open at the deadline are dropped.
func (b *Bot) Shutdown(ctx context.Context) error {
	b.inShutdown.Store(true)
	err := b.mc.Shutdown(ctx)
	if err != nil {
		b.mc.Close()
	}
	b.api.StopReceivingUpdates()

	select {
	case <-b.isDone:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
