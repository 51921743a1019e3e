// Package handlers routes Telegram updates to the bot's commands and chat
// replies.
package handlers

import (
	"regexp"
	"strings"

	"github.com/go-telegram/bot/models"
)

// Kind is the classified type of an inbound update.
type Kind int

const (
	KindIgnore Kind = iota
	KindStart
	KindHelp
	KindTips
	KindLeaderboard
	KindMeme
	KindPoll
	KindLanguage
	KindBroadcastNow
	KindLastBroadcast
	KindChat
)

var kindNames = [...]string{
	KindIgnore:        "ignore",
	KindStart:         "start",
	KindHelp:          "help",
	KindTips:          "tips",
	KindLeaderboard:   "leaderboard",
	KindMeme:          "meme",
	KindPoll:          "poll",
	KindLanguage:      "language",
	KindBroadcastNow:  "broadcast",
	KindLastBroadcast: "lastbroadcast",
	KindChat:          "chat",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

var commandKinds = map[string]Kind{
	"start":         KindStart,
	"help":          KindHelp,
	"tips":          KindTips,
	"leaderboard":   KindLeaderboard,
	"meme":          KindMeme,
	"poll":          KindPoll,
	"language":      KindLanguage,
	"broadcast":     KindBroadcastNow,
	"lastbroadcast": KindLastBroadcast,
}

// Event is a classified update.
type Event struct {
	Kind    Kind
	Message *models.Message

	// Command is the command name without slash or bot suffix, empty for
	// plain messages.
	Command string

	// Args is the text after the command, or the prompt of a chat message
	// with the bot mention removed.
	Args string
}

// IsGroup reports whether the event comes from a group or supergroup.
func (e Event) IsGroup() bool {
	return e.Message != nil && isGroupChat(e.Message.Chat.Type)
}

func isGroupChat(t models.ChatType) bool {
	return t == models.ChatTypeGroup || t == models.ChatTypeSupergroup
}

// Classifier classifies updates for one bot identity.
type Classifier struct {
	me      *models.User
	mention *regexp.Regexp
}

// NewClassifier creates a Classifier for the bot user me, as returned by
// getMe. A nil me never matches mentions, replies or addressed commands.
func NewClassifier(me *models.User) *Classifier {
	c := &Classifier{me: me}
	if me != nil && me.Username != "" {
		c.mention = regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(me.Username) + `\b`)
	}
	return c
}

// Classify decides what an update is. Private chats always get a chat reply;
// groups only when the bot is mentioned or the message replies to the bot.
// Channel posts, edits and other update types are ignored.
func (c *Classifier) Classify(update *models.Update) Event {
	me := c.me
	if update == nil || update.Message == nil {
		return Event{Kind: KindIgnore}
	}
	msg := update.Message
	ev := Event{Kind: KindIgnore, Message: msg}
	if msg.Chat.Type == models.ChatTypeChannel {
		return ev
	}

	text := messageText(msg)
	if name, args, ok := parseCommand(text); ok {
		ev.Command = name
		ev.Args = args
		if target := commandTarget(name); target != "" {
			if me == nil || !strings.EqualFold(target, me.Username) {
				return ev
			}
			ev.Command = name[:len(name)-len(target)-1]
		}
		if kind, ok := commandKinds[strings.ToLower(ev.Command)]; ok {
			ev.Kind = kind
		}
		return ev
	}

	if strings.TrimSpace(text) == "" {
		return ev
	}
	switch {
	case msg.Chat.Type == models.ChatTypePrivate:
		ev.Kind = KindChat
	case isGroupChat(msg.Chat.Type) && (mentionsBot(msg, text, me) || repliesToBot(msg, me)):
		ev.Kind = KindChat
	default:
		return ev
	}
	ev.Args = c.stripMention(text)
	return ev
}

func messageText(msg *models.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// parseCommand splits "/name@bot args" into "name@bot" and "args".
func parseCommand(text string) (name, args string, ok bool) {
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	if head == "" {
		return "", "", false
	}
	if i := strings.IndexAny(head, "\n\t"); i >= 0 {
		rest = head[i+1:] + " " + rest
		head = head[:i]
	}
	return head, strings.TrimSpace(rest), true
}

func commandTarget(name string) string {
	if _, target, found := strings.Cut(name, "@"); found {
		return target
	}
	return ""
}

func mentionsBot(msg *models.Message, text string, me *models.User) bool {
	if me == nil {
		return false
	}
	if me.Username != "" && strings.Contains(strings.ToLower(text), "@"+strings.ToLower(me.Username)) {
		return true
	}
	for _, entities := range [][]models.MessageEntity{msg.Entities, msg.CaptionEntities} {
		for _, e := range entities {
			if e.Type == models.MessageEntityTypeTextMention && e.User != nil && e.User.ID == me.ID {
				return true
			}
		}
	}
	return false
}

func repliesToBot(msg *models.Message, me *models.User) bool {
	return me != nil && msg.ReplyToMessage != nil && msg.ReplyToMessage.From != nil && msg.ReplyToMessage.From.ID == me.ID
}

// stripMention removes the bot's @username from text. The original text is
// kept when nothing else is left.
func (c *Classifier) stripMention(text string) string {
	trimmed := strings.TrimSpace(text)
	if c.mention == nil {
		return trimmed
	}
	out := strings.TrimSpace(c.mention.ReplaceAllString(trimmed, ""))
	if out == "" {
		return trimmed
	}
	return out
}
