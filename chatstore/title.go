package chatstore

// DefaultChatTitle is the placeholder a chat carries until its first
// assistant reply; only chats still holding it get a derived title.
const DefaultChatTitle = "Neuer Chat"

const titleMaxChars = 50

// DeriveTitle builds a short chat title from the first user message: the
// first 50 characters, ellipsis-suffixed when truncated.
func DeriveTitle(firstUserMessage string) string {
	runes := []rune(firstUserMessage)
	if len(runes) <= titleMaxChars {
		return firstUserMessage
	}
	return string(runes[:titleMaxChars]) + "..."
}
