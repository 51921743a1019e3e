package state

import "strconv"

const (
	leaderboardKey   = "leaderboard:global"
	activeChatsKey   = "active_chats"
	lastBroadcastKey = "last_broadcast"
)

// ConversationKey identifies one direct or group conversation.
type ConversationKey string

// ConversationKeyFor derives the key for a message. Group chats are keyed by
// chat so every member shares one history; direct chats by sender.
func ConversationKeyFor(isGroup bool, chatID, userID int64) ConversationKey {
	if isGroup {
		return ConversationKey("group:" + strconv.FormatInt(chatID, 10))
	}
	return ConversationKey("user:" + strconv.FormatInt(userID, 10))
}

func historyKey(key ConversationKey) string {
	return "history:" + string(key)
}

func languageKey(userID int64) string {
	return "language:" + strconv.FormatInt(userID, 10)
}
