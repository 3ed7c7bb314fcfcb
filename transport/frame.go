package transport

import "encoding/json"

// Frame is one inbound message from the chat backend.
type Frame struct {
	ChatID  string
	Sender  string
	Content string
	Raw     []byte
}

// DecodeFrame parses an inbound payload. Both the {"message","chat_id"} shape
// used for outbound traffic and a {"sender","content"} record shape are
// accepted; anything that is not a JSON object with text is kept verbatim.
func DecodeFrame(data []byte) Frame {
	raw := append([]byte(nil), data...)

	var env struct {
		Message *string `json:"message"`
		Content *string `json:"content"`
		ChatID  string  `json:"chat_id"`
		Sender  string  `json:"sender"`
	}
	if err := json.Unmarshal(data, &env); err != nil || (env.Message == nil && env.Content == nil) {
		return Frame{Content: string(data), Raw: raw}
	}

	f := Frame{ChatID: env.ChatID, Sender: env.Sender, Raw: raw}
	if env.Content != nil {
		f.Content = *env.Content
	} else {
		f.Content = *env.Message
	}
	return f
}
