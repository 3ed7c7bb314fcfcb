package composer

// NoActiveChatText is shown when a message is submitted with no chat selected.
const NoActiveChatText = "Select or create a Chat first."

// Level is the severity of a user-facing notice.
type Level int

const (
	LevelInfo Level = iota
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notice is a transient, user-visible notification.
type Notice struct {
	Level Level
	Text  string
}

// Notifier presents notices to the user. Implementations must not block.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a plain function to the Notifier interface.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) { f(n) }
