// Package telegram creates the Telegram client and wraps the outbound calls
// used by handlers and the broadcast.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewTelegramBot creates a new Telegram bot instance using the go-telegram/bot library.
func NewTelegramBot(token string, logger *slog.Logger, opts ...bot.Option) (*bot.Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "telegram_bot")

	b, err := bot.New(token, opts...)
	if err != nil {
		log.Error("Failed to create Telegram bot instance", "error", err)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	prefix := token
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	log.Info("Telegram bot instance created successfully", "token_prefix", prefix+"...")
	return b, nil
}

// API is the subset of *bot.Bot used by Sender.
type API interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
	SendPoll(ctx context.Context, params *bot.SendPollParams) (*models.Message, error)
	SendChatAction(ctx context.Context, params *bot.SendChatActionParams) (bool, error)
	SetMyCommands(ctx context.Context, params *bot.SetMyCommandsParams) (bool, error)
}

// Sender sends plain text, polls and chat actions. Text longer than the
// configured message length is sent as several messages.
type Sender struct {
	api       API
	maxLength int
}

// NewSender wraps api. A maxLength of zero or above the Telegram limit uses
// MaxMessageLength.
func NewSender(api API, maxLength int) *Sender {
	if maxLength <= 0 || maxLength > MaxMessageLength {
		maxLength = MaxMessageLength
	}
	return &Sender{api: api, maxLength: maxLength}
}

// SendText sends text to chatID. Numeric ids are sent as integers, anything
// else (a @channel name) as is.
func (s *Sender) SendText(ctx context.Context, chatID string, text string) error {
	var target any = chatID
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		target = id
	}
	if err := s.send(ctx, target, 0, text); err != nil {
		return fmt.Errorf("send message to %s: %w", chatID, err)
	}
	return nil
}

// Send sends text to chatID.
func (s *Sender) Send(ctx context.Context, chatID int64, text string) error {
	if err := s.send(ctx, chatID, 0, text); err != nil {
		return fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return nil
}

// Reply sends text to chatID as a reply to message replyTo. Only the first
// part of a split reply quotes replyTo.
func (s *Sender) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	if err := s.send(ctx, chatID, replyTo, text); err != nil {
		return fmt.Errorf("reply to %d in %d: %w", replyTo, chatID, err)
	}
	return nil
}

// send delivers text in order, stopping at the first failed part.
func (s *Sender) send(ctx context.Context, chatID any, replyTo int, text string) error {
	parts := splitText(text, s.maxLength)
	if len(parts) == 0 {
		parts = []string{text}
	}

	for i, part := range parts {
		params := &bot.SendMessageParams{ChatID: chatID, Text: part}
		if i == 0 && replyTo != 0 {
			params.ReplyParameters = &models.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
		}
		if _, err := s.api.SendMessage(ctx, params); err != nil {
			if len(parts) > 1 {
				return fmt.Errorf("part %d of %d: %w", i+1, len(parts), err)
			}
			return err
		}
	}
	return nil
}

// SendPoll sends a non-anonymous poll.
func (s *Sender) SendPoll(ctx context.Context, chatID int64, question string, options []string) error {
	opts := make([]models.InputPollOption, 0, len(options))
	for _, o := range options {
		opts = append(opts, models.InputPollOption{Text: o})
	}
	_, err := s.api.SendPoll(ctx, &bot.SendPollParams{
		ChatID:      chatID,
		Question:    question,
		Options:     opts,
		IsAnonymous: bot.False(),
	})
	if err != nil {
		return fmt.Errorf("send poll to %d: %w", chatID, err)
	}
	return nil
}

// Typing shows the typing indicator in chatID.
func (s *Sender) Typing(ctx context.Context, chatID int64) error {
	_, err := s.api.SendChatAction(ctx, &bot.SendChatActionParams{ChatID: chatID, Action: models.ChatActionTyping})
	if err != nil {
		return fmt.Errorf("send typing action to %d: %w", chatID, err)
	}
	return nil
}

// SetCommands publishes the command menu.
func (s *Sender) SetCommands(ctx context.Context, commands []models.BotCommand) error {
	if _, err := s.api.SetMyCommands(ctx, &bot.SetMyCommandsParams{Commands: commands}); err != nil {
		return fmt.Errorf("set bot commands: %w", err)
	}
	return nil
}
