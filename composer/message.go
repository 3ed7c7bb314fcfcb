package composer

// UserSender is the sender label attached to locally composed messages.
const UserSender = "User"

// OutgoingMessage is the wire payload sent over the connection for each submission.
type OutgoingMessage struct {
	Message string `json:"message"`
	ChatID  string `json:"chat_id"`
}

// LocalMessage is the record handed to the parent for immediate display.
// It does not wait for any server acknowledgment.
type LocalMessage struct {
	Sender  string `json:"sender"`
	Content string `json:"content"`
}

// IsUser reports whether the message was composed locally.
func (m LocalMessage) IsUser() bool {
	return m.Sender == UserSender
}
