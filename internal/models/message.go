package models

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}

// Status is the processing state reported by the document service.
// Only StatusReady is terminal; any other value means "not yet ready".
type Status string

const (
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusError      Status = "error"
	StatusInvalid    Status = "invalid"
)

func (s Status) Ready() bool {
	return s == StatusReady
}

type UploadResponse struct {
	SessionID string `json:"session_id"`
	Status    Status `json:"status"`
}

type StatusResponse struct {
	Status Status `json:"status"`
}

type ChatRequest struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
}

type ChatResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Status Status `json:"status,omitempty"`
}
