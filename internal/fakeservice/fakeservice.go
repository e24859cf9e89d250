// Package fakeservice is an in-memory stand-in for the document chat service.
// It speaks the same HTTP contract and answers chat queries by echoing them.
package fakeservice

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/xhad/pdfchat/internal/models"
)

type Service struct {
	// ReadyAfter is the number of status polls answered "processing"
	// before the session turns ready.
	ReadyAfter int
	// ProcessingStatus overrides the status reported while not ready.
	ProcessingStatus models.Status
	Delay            time.Duration
	FailUpload       bool
	FailChat         bool
	Reply            func(query string) string

	mu       sync.Mutex
	nextID   int
	sessions map[string]*session
	uploads  []Upload
	queries  []models.ChatRequest
}

type Upload struct {
	SessionID string
	FileName  string
	Size      int
}

type session struct {
	polls int
}

func New() *Service {
	return &Service{sessions: make(map[string]*session)}
}

func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/upload_pdf", s.handleUpload)
	mux.HandleFunc("/session_status", s.handleStatus)
	mux.HandleFunc("/chat", s.handleChat)
	return mux
}

func (s *Service) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Service) Queries() []models.ChatRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.ChatRequest(nil), s.queries...)
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	s.sleep()
	if s.FailUpload {
		http.Error(w, "upload failed", http.StatusInternalServerError)
		return
	}

	file, header, err := r.FormFile("pdf")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No PDF uploaded"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	s.mu.Lock()
	if s.sessions == nil {
		s.sessions = make(map[string]*session)
	}
	s.nextID++
	id := "session-" + strconv.Itoa(s.nextID)
	s.sessions[id] = &session{}
	s.uploads = append(s.uploads, Upload{SessionID: id, FileName: header.Filename, Size: len(data)})
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UploadResponse{SessionID: id, Status: models.StatusProcessing})
}

func (s *Service) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.sleep()
	id := r.URL.Query().Get("session_id")

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if ok {
		sess.polls++
	}
	status := s.statusLocked(sess)
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, models.StatusResponse{Status: models.StatusInvalid})
		return
	}
	writeJSON(w, http.StatusOK, models.StatusResponse{Status: status})
}

func (s *Service) handleChat(w http.ResponseWriter, r *http.Request) {
	s.sleep()
	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	s.mu.Lock()
	sess, ok := s.sessions[req.SessionID]
	status := s.statusLocked(sess)
	s.queries = append(s.queries, req)
	s.mu.Unlock()

	switch {
	case !ok:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid or missing session_id"})
	case !status.Ready():
		writeJSON(w, http.StatusOK, map[string]string{"error": fmt.Sprintf("Session not ready. Current status: %s", status)})
	case s.FailChat:
		http.Error(w, "chat failed", http.StatusInternalServerError)
	default:
		reply := "You asked: " + req.Query
		if s.Reply != nil {
			reply = s.Reply(req.Query)
		}
		writeJSON(w, http.StatusOK, models.ChatResponse{Response: reply})
	}
}

func (s *Service) statusLocked(sess *session) models.Status {
	if sess == nil {
		return models.StatusInvalid
	}
	if sess.polls > s.ReadyAfter {
		return models.StatusReady
	}
	if s.ProcessingStatus != "" {
		return s.ProcessingStatus
	}
	return models.StatusProcessing
}

func (s *Service) sleep() {
	if s.Delay > 0 {
		time.Sleep(s.Delay)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
