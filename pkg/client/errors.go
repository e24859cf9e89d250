package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/xhad/pdfchat/internal/models"
)

const maxMessageLen = 200

// APIError is a non-2xx answer from the service.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
	// Status is set when the error body still carried a session status.
	Status models.Status
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

func newAPIError(op string, resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: resp.StatusCode}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || json.Valid(body):
		var decoded models.ErrorResponse
		if err := json.Unmarshal(body, &decoded); err == nil {
			apiErr.Message = decoded.Error
			apiErr.Status = decoded.Status
		}
	case mediaType == "text/html":
		apiErr.Message = htmlErrorMessage(body)
	default:
		apiErr.Message = truncate(strings.TrimSpace(string(body)))
	}

	if apiErr.Message == "" && apiErr.Status == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

// htmlErrorMessage pulls a readable message out of a framework error page,
// preferring the first paragraph over the page title.
func htmlErrorMessage(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	if p := strings.TrimSpace(doc.Find("p").First().Text()); p != "" {
		return truncate(strings.Join(strings.Fields(p), " "))
	}
	if h := strings.TrimSpace(doc.Find("h1").First().Text()); h != "" {
		return truncate(h)
	}
	return truncate(strings.TrimSpace(doc.Find("title").First().Text()))
}

func truncate(s string) string {
	if len(s) <= maxMessageLen {
		return s
	}
	cut := maxMessageLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
