package notifier

// TextNotifier defines a minimal text notification interface.
// It is intentionally small so different components can depend on it without
// importing concrete implementations (e.g. Telegram).
type TextNotifier interface {
	SendText(text string) error
}

// ChatNotifier delivers a message to one specific chat. The sync engine uses
// it to reach each user at their own Telegram ID.
type ChatNotifier interface {
	SendTo(chatID int64, text string) error
}
