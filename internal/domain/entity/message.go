package entity

import "time"

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Chat struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
}

type ChatMessage struct {
	ID        string
	ChatID    string
	Sender    MessageRole
	Content   string
	Timestamp time.Time
}

type User struct {
	ID         string
	Email      string
	PrivateKey string
	CreatedAt  time.Time
}

// ChatTitleLimit is the number of runes of the first message used as the chat title.
const ChatTitleLimit = 50

func ChatTitle(message string) string {
	runes := []rune(message)
	if len(runes) > ChatTitleLimit {
		runes = runes[:ChatTitleLimit]
	}
	return string(runes)
}

// UsageDateLayout formats the calendar day that keys the prompt counter.
const UsageDateLayout = "2006-01-02"

func UsageDate(t time.Time) string {
	return t.UTC().Format(UsageDateLayout)
}
