package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"io/fs"
	"strings"

	"github.com/xhad/pdfchat/pkg/pdf"
	"github.com/xhad/pdfchat/pkg/session"
)

const helpText = `Commands:
  /upload <path>  upload a PDF and start a new conversation
  /status         show the current document and its processing status
  /history        print the conversation so far
  /help           show this help
  exit            quit
Anything else is sent as a question about the current PDF.`

type repl struct {
	ctx     context.Context
	sess    *session.Session
	view    *view
	baseURL string
}

// loop reads commands from in until EOF, "exit", or ctx is done.
func (r *repl) loop(in io.Reader, pdfPath string) error {
	r.view.info("Chat with your PDF via %s (type /help for commands, 'exit' to quit)", r.baseURL)

	if pdfPath != "" {
		r.upload(pdfPath)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-r.ctx.Done():
				return
			}
		}
	}()

	for {
		r.view.prompt()

		var line string
		var ok bool
		select {
		case <-r.ctx.Done():
			r.view.finishSpinner()
			return nil
		case line, ok = <-lines:
			if !ok {
				r.view.finishSpinner()
				return nil
			}
		}

		if !r.handle(strings.TrimRight(line, "\r")) {
			return nil
		}
	}
}

// handle runs one input line and reports whether the loop should continue.
func (r *repl) handle(line string) bool {
	cmd := strings.TrimSpace(line)
	switch {
	case cmd == "":
		return true
	case strings.EqualFold(cmd, "exit"), strings.EqualFold(cmd, "quit"):
		return false
	case cmd == "/help":
		r.view.info(helpText)
	case cmd == "/status":
		r.status()
	case cmd == "/history":
		r.view.transcript(r.sess.Messages())
	case cmd == "/upload" || strings.HasPrefix(cmd, "/upload "):
		r.upload(strings.TrimSpace(strings.TrimPrefix(cmd, "/upload")))
	default:
		r.send(line)
	}
	return true
}

func (r *repl) upload(path string) {
	if r.sess.Processing() {
		r.view.warn(msgProcessing)
		return
	}

	r.view.startSpinner("Uploading " + path + "...")
	err := r.sess.Upload(r.ctx, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		r.view.fail(msgFileNotFound, path)
	case errors.Is(err, pdf.ErrNotPDF):
		r.view.fail(msgInvalidFile)
	case err != nil:
		r.view.fail(msgUploadFailed)
	default:
		r.view.finishSpinner()
		r.view.info("Uploaded PDF: %s", r.sess.FileName())
		if r.sess.Processing() {
			r.view.startSpinner(msgProcessing)
		}
	}
}

func (r *repl) send(text string) {
	// leave the processing spinner alone until there is something to ask
	if !r.sess.Ready() {
		r.notReady()
		return
	}

	r.view.startSpinner("Thinking...")
	_, err := r.sess.Send(r.ctx, text)
	switch {
	case errors.Is(err, session.ErrNotReady):
		r.view.finishSpinner()
		r.notReady()
	case err != nil:
		r.view.fail("Error: %v", err)
	}
}

func (r *repl) notReady() {
	if r.sess.Processing() {
		r.view.warn(msgNotReady)
	} else {
		r.view.warn(msgNoDocument)
	}
}

func (r *repl) status() {
	name := r.sess.FileName()
	if name == "" {
		r.view.warn(msgNoDocument)
		return
	}
	r.view.info("Uploaded PDF: %s", name)
	r.view.info("Session: %s (%s)", r.sess.SessionID(), r.sess.State())
	if st := r.sess.Status(); st != "" {
		r.view.info("Status: %s", statusString(st))
	}
}
