package bot

import "context"

// Kind classifies an inbound user action.
type Kind int

const (
	KindCommand Kind = iota
	KindText
	KindDocument
	KindCallback
)

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindText:
		return "text"
	case KindDocument:
		return "document"
	case KindCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event is one normalized inbound action from the messaging gateway.
type Event struct {
	UserID    int64
	ChatID    int64
	MessageID int64
	Kind      Kind

	// Command fields (Kind == KindCommand). Command is lowercase without
	// the leading slash; Args is the remainder of the line.
	Command string
	Args    string

	// Text is the message body (Kind == KindText).
	Text string

	// Document fields (Kind == KindDocument).
	Document *Document

	// Callback fields (Kind == KindCallback).
	Callback *Callback
}

// Document references an uploaded file, fetched on demand.
type Document struct {
	FileID   string
	FileName string
}

// Callback is a tap on an inline keyboard button.
type Callback struct {
	ID        string
	MessageID int64
	Data      string
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Keyboard is an inline keyboard: rows of buttons. nil means no keyboard.
type Keyboard [][]Button

// Gateway is the messaging surface the state machine renders through.
// Implemented by the Telegram client; faked in tests.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, kb Keyboard) (int64, error)
	EditMessage(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
	DownloadFile(ctx context.Context, fileID string) ([]byte, error)
}
