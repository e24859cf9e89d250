package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/xhad/pdfchat/internal/models"
	"github.com/xhad/pdfchat/internal/types"
	"github.com/xhad/pdfchat/pkg/pdf"
)

const (
	DefaultWelcomeMessage  = "I'm ready to assist you with your PDF. Ask me anything about it!"
	DefaultFallbackMessage = "Sorry, I encountered an error processing your request."
	DefaultPollInterval    = 2 * time.Second
)

var (
	ErrNotReady     = errors.New("no document is ready for chat")
	ErrEmptyMessage = errors.New("message is empty")
)

// State is the upload lifecycle: idle -> uploading -> polling -> ready.
type State int

const (
	StateIdle State = iota
	StateUploading
	StatePolling
	StateReady
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateUploading:
		return "uploading"
	case StatePolling:
		return "polling"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// SessionConfig represents the configuration for a chat session.
type SessionConfig struct {
	Service         types.DocumentService
	PollInterval    time.Duration
	WelcomeMessage  string
	FallbackMessage string
	Logger          log.Logger

	// Open accepts or rejects a local file before anything is sent.
	// Defaults to pdf.Open.
	Open func(path string) (types.Document, error)

	// Callbacks run outside the session lock, on the goroutine that caused them.
	OnStatus  func(status models.Status)
	OnReady   func()
	OnMessage func(msg models.Message)
}

// Session drives one document at a time through upload, status polling
// and chat, and keeps the transcript for the current document.
type Session struct {
	config SessionConfig
	logger log.Logger

	mu         sync.Mutex
	state      State
	generation uint64
	fileName   string
	sessionID  string
	status     models.Status
	transcript Transcript
	poller     *poller
	polls      sync.WaitGroup
	closed     bool
}

// NewWithConfig creates a new Session with the given configuration.
func NewWithConfig(config SessionConfig) (*Session, error) {
	if config.Service == nil {
		return nil, fmt.Errorf("session: document service is required")
	}
	if config.PollInterval < 0 {
		return nil, fmt.Errorf("session: poll interval cannot be negative")
	} else if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.WelcomeMessage == "" {
		config.WelcomeMessage = DefaultWelcomeMessage
	}
	if config.FallbackMessage == "" {
		config.FallbackMessage = DefaultFallbackMessage
	}
	if config.Logger == nil {
		config.Logger = log.NewNopLogger()
	}
	if config.Open == nil {
		config.Open = func(path string) (types.Document, error) {
			return pdf.Open(path)
		}
	}

	return &Session{
		config: config,
		logger: config.Logger,
	}, nil
}

// Upload accepts the file at path and sends it to the service. A rejected
// file changes nothing. Otherwise the previous document's session and
// transcript are dropped before the request is made, and polling starts
// once the service hands back a session id. Polling stops when ctx is done.
func (s *Session) Upload(ctx context.Context, path string) error {
	doc, err := s.config.Open(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("session: closed")
	}
	s.stopPollerLocked()
	s.generation++
	gen := s.generation
	s.state = StateUploading
	s.fileName = doc.GetName()
	s.sessionID = ""
	s.status = ""
	s.transcript.Reset()
	s.mu.Unlock()

	level.Info(s.logger).Log("msg", "uploading document", "file", doc.GetName(), "path", doc.GetPath(), "size", doc.GetSize())

	resp, err := s.send(ctx, doc)
	if err != nil {
		s.mu.Lock()
		if s.generation == gen {
			s.state = StateIdle
		}
		s.mu.Unlock()
		level.Error(s.logger).Log("msg", "upload failed", "file", doc.GetName(), "err", err)
		return fmt.Errorf("failed to upload %s: %w", doc.GetName(), err)
	}

	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		return nil
	}
	s.sessionID = resp.SessionID
	s.status = resp.Status
	s.state = StatePolling
	p := newPoller(ctx, s.config.PollInterval)
	s.poller = p
	s.polls.Add(1)
	s.mu.Unlock()

	level.Info(s.logger).Log("msg", "document uploaded", "session_id", resp.SessionID, "status", resp.Status)
	s.notifyStatus(resp.Status)

	go func() {
		defer s.polls.Done()
		p.run(func(ctx context.Context) bool {
			return s.poll(ctx, gen, resp.SessionID)
		})
	}()
	return nil
}

func (s *Session) send(ctx context.Context, doc types.Document) (*models.UploadResponse, error) {
	r, err := doc.Reader()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return s.config.Service.Upload(ctx, doc.GetName(), r)
}

// poll runs one status check and reports whether polling should stop.
func (s *Session) poll(ctx context.Context, gen uint64, sessionID string) bool {
	status, err := s.config.Service.Status(ctx, sessionID)
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		level.Warn(s.logger).Log("msg", "status check failed", "session_id", sessionID, "err", err)
		return false
	}

	s.mu.Lock()
	if s.generation != gen || s.closed {
		s.mu.Unlock()
		return true
	}
	s.status = status
	var welcome models.Message
	if status.Ready() {
		s.state = StateReady
		s.poller = nil
		welcome = models.Message{Sender: models.SenderBot, Text: s.config.WelcomeMessage}
		s.transcript.Replace(welcome)
	}
	s.mu.Unlock()

	level.Debug(s.logger).Log("msg", "status", "session_id", sessionID, "status", status)
	s.notifyStatus(status)

	if status.Ready() {
		level.Info(s.logger).Log("msg", "document ready", "session_id", sessionID)
		if s.config.OnReady != nil {
			s.config.OnReady()
		}
		s.notifyMessage(welcome)
		return true
	}
	return false
}

// Send posts text to the service and appends both sides of the exchange to
// the transcript. A failed exchange appends the fallback reply instead of
// returning an error; errors are returned only when nothing was sent.
func (s *Session) Send(ctx context.Context, text string) (*models.Message, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	s.mu.Lock()
	if s.state != StateReady || s.sessionID == "" {
		s.mu.Unlock()
		return nil, ErrNotReady
	}
	gen := s.generation
	sessionID := s.sessionID
	userMsg := models.Message{Sender: models.SenderUser, Text: text}
	s.transcript.Append(userMsg)
	s.mu.Unlock()

	s.notifyMessage(userMsg)

	reply, err := s.config.Service.Chat(ctx, sessionID, text)
	botMsg := models.Message{Sender: models.SenderBot, Text: reply}
	if err != nil {
		level.Error(s.logger).Log("msg", "chat failed", "session_id", sessionID, "err", err)
		botMsg.Text = s.config.FallbackMessage
	}

	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		level.Debug(s.logger).Log("msg", "dropping reply for replaced document", "session_id", sessionID)
		return &botMsg, nil
	}
	s.transcript.Append(botMsg)
	s.mu.Unlock()

	s.notifyMessage(botMsg)
	return &botMsg, nil
}

// Close stops polling and waits for running poll loops to return, so no
// callback fires once it returns. It is safe to call more than once, but
// not from inside a callback.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopPollerLocked()
	s.mu.Unlock()

	s.polls.Wait()
}

func (s *Session) stopPollerLocked() {
	if s.poller != nil {
		s.poller.stop()
		s.poller = nil
	}
}

func (s *Session) notifyStatus(status models.Status) {
	if s.config.OnStatus != nil {
		s.config.OnStatus(status)
	}
}

func (s *Session) notifyMessage(msg models.Message) {
	if s.config.OnMessage != nil {
		s.config.OnMessage(msg)
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) Status() models.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fileName
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

func (s *Session) Processing() bool {
	st := s.State()
	return st == StateUploading || st == StatePolling
}

func (s *Session) Ready() bool {
	return s.State() == StateReady
}
