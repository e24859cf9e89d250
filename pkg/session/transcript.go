package session

import "github.com/xhad/pdfchat/internal/models"

// Transcript is the append-only message list for one document.
// It is not safe for concurrent use; Session guards it.
type Transcript struct {
	messages []models.Message
}

func (t *Transcript) Append(msg models.Message) {
	t.messages = append(t.messages, msg)
}

func (t *Transcript) Replace(msgs ...models.Message) {
	t.messages = append([]models.Message(nil), msgs...)
}

func (t *Transcript) Reset() {
	t.messages = nil
}

func (t *Transcript) Len() int {
	return len(t.messages)
}

func (t *Transcript) Messages() []models.Message {
	out := make([]models.Message, len(t.messages))
	copy(out, t.messages)
	return out
}
