package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/xhad/pdfchat/internal/models"
)

const (
	msgInvalidFile   = "Please upload a valid PDF file."
	msgFileNotFound  = "File not found: %s"
	msgUploadFailed  = "Failed to upload PDF. Please try again."
	msgProcessing    = "Processing your PDF, please wait..."
	msgNotReady      = "Processing PDF..."
	msgNoDocument    = "Upload a PDF first with /upload <path>."
	spinnerFrameRate = 100 * time.Millisecond
)

// view renders session events to the terminal. Its methods are called from
// the REPL and from the poll goroutine.
type view struct {
	out            io.Writer
	spinnerEnabled bool

	mu      sync.Mutex
	spinner *progressbar.ProgressBar
	stopAni chan struct{}

	user      *color.Color
	assistant *color.Color
}

func newView(out io.Writer, spinner bool) *view {
	return &view{
		out:            out,
		spinnerEnabled: spinner,
		user:           color.New(color.FgGreen),
		assistant:      color.New(color.FgCyan),
	}
}

func (v *view) getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(v.out),
		progressbar.OptionSetDescription(color.CyanString("%s", description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (v *view) startSpinner(description string) {
	if !v.spinnerEnabled {
		fmt.Fprintln(v.out, color.CyanString("%s", description))
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.finishSpinnerLocked()

	bar := v.getSpinner(description)
	stop := make(chan struct{})
	v.spinner = bar
	v.stopAni = stop

	go func() {
		t := time.NewTicker(spinnerFrameRate)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				_ = bar.Add(1)
			}
		}
	}()
}

func (v *view) describe(description string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.spinner == nil {
		return
	}
	v.spinner.Describe(description)
}

func (v *view) finishSpinner() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.finishSpinnerLocked()
}

func (v *view) finishSpinnerLocked() {
	if v.spinner == nil {
		return
	}
	close(v.stopAni)
	_ = v.spinner.Finish()
	v.spinner = nil
	v.stopAni = nil
	fmt.Fprint(v.out, "\r")
}

func statusString(status models.Status) string {
	if status.Ready() {
		return color.GreenString(string(status))
	}
	return color.YellowString(string(status))
}

// status is the session's OnStatus callback.
func (v *view) status(status models.Status) {
	if status.Ready() {
		return
	}
	v.describe(color.CyanString("%s (status: %s)", msgProcessing, statusString(status)))
}

// ready is the session's OnReady callback.
func (v *view) ready(fileName string) {
	v.finishSpinner()
	color.New(color.FgGreen).Fprintf(v.out, "\n✓ %s is ready\n", fileName)
}

// message is the session's OnMessage callback. User messages are already on
// screen as typed, so only bot messages are printed.
func (v *view) message(msg models.Message) {
	if msg.Sender != models.SenderBot {
		return
	}
	v.finishSpinner()
	v.assistant.Fprintf(v.out, "\nAssistant: %s\n", msg.Text)
}

func (v *view) prompt() {
	v.user.Fprint(v.out, "\nYou: ")
}

func (v *view) transcript(messages []models.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(v.out, "No messages yet.")
		return
	}
	for _, m := range messages {
		if m.Sender == models.SenderUser {
			v.user.Fprintf(v.out, "You: %s\n", m.Text)
		} else {
			v.assistant.Fprintf(v.out, "Assistant: %s\n", m.Text)
		}
	}
}

func (v *view) info(format string, a ...interface{}) {
	color.New(color.FgBlue).Fprintf(v.out, format+"\n", a...)
}

func (v *view) warn(format string, a ...interface{}) {
	color.New(color.FgYellow).Fprintf(v.out, format+"\n", a...)
}

func (v *view) fail(format string, a ...interface{}) {
	v.finishSpinner()
	color.New(color.FgRed).Fprintf(v.out, format+"\n", a...)
}
