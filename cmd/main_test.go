package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/pdfchat/internal/fakeservice"
	"github.com/xhad/pdfchat/internal/models"
	"github.com/xhad/pdfchat/internal/types"
	"github.com/xhad/pdfchat/pkg/client"
	"github.com/xhad/pdfchat/pkg/session"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig(url string) types.Config {
	return types.Config{
		Service: types.ServiceConfig{BaseURL: url, Timeout: 2 * time.Second, UserAgent: "pdfchat-test"},
		Poll:    types.PollConfig{Interval: 10 * time.Millisecond},
		UI:      types.UIConfig{Color: false, Spinner: false},
		Log:     types.LogConfig{Level: "none", Format: "logfmt"},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseFlags(t *testing.T) {
	opts := parseFlags([]string{"-url", "http://svc:5000", "-poll-interval", "1s", "-no-color", "story.pdf"})

	assert.Equal(t, "http://svc:5000", opts.baseURL)
	assert.Equal(t, time.Second, opts.pollInterval)
	assert.True(t, opts.noColor)
	assert.Equal(t, "story.pdf", opts.pdfPath)
}

func TestLoadConfigFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, "config.yaml", "service:\n  base_url: http://file:5000\npoll:\n  interval: 3s\n")

	config, err := loadConfig(options{configPath: path, baseURL: "http://flag:5000", noSpinner: true})
	require.NoError(t, err)
	assert.Equal(t, "http://flag:5000", config.Service.BaseURL)
	assert.Equal(t, 3*time.Second, config.Poll.Interval)
	assert.False(t, config.UI.Spinner)

	_, err = loadConfig(options{configPath: path, pollInterval: time.Millisecond})
	assert.Error(t, err)
}

func TestRunChatSession(t *testing.T) {
	svc := fakeservice.New()
	svc.ReadyAfter = 1
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	pdfPath := writeFile(t, "story.pdf", "%PDF-1.4\n%%EOF\n")
	textPath := writeFile(t, "notes.txt", "not a pdf")

	inR, inW := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), testConfig(srv.URL), "", inR, out, io.Discard)
	}()

	write := func(line string) {
		_, err := io.WriteString(inW, line+"\n")
		require.NoError(t, err)
	}
	waitOutput := func(s string) {
		require.Eventually(t, func() bool {
			return bytes.Contains([]byte(out.String()), []byte(s))
		}, 2*time.Second, 5*time.Millisecond, "waiting for %q in:\n%s", s, out.String())
	}

	write("hello before upload")
	waitOutput(msgNoDocument)

	write("/upload " + textPath)
	waitOutput(msgInvalidFile)
	assert.Empty(t, svc.Uploads())

	write("/upload " + filepath.Join(t.TempDir(), "missing.pdf"))
	waitOutput("File not found: ")
	assert.NotContains(t, out.String(), msgUploadFailed)

	write("/upload " + pdfPath)
	waitOutput("story.pdf is ready")
	waitOutput("Ask me anything about it!")

	write("who wrote it?")
	waitOutput("Assistant: You asked: who wrote it?")

	write("/history")
	waitOutput("You: who wrote it?")

	write("exit")
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("repl did not exit")
	}
	require.Len(t, svc.Uploads(), 1)
}

func TestRunUploadFailure(t *testing.T) {
	svc := fakeservice.New()
	svc.FailUpload = true
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	pdfPath := writeFile(t, "story.pdf", "%PDF-1.4\n%%EOF\n")
	out := &syncBuffer{}

	err := run(context.Background(), testConfig(srv.URL), pdfPath, bytes.NewBufferString("/status\n"), out, io.Discard)
	require.NoError(t, err)
	assert.Contains(t, out.String(), msgUploadFailed)
	assert.Contains(t, out.String(), "Session:  (idle)")
}

func TestRunStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(fakeservice.New().Handler())
	defer srv.Close()

	inR, inW := io.Pipe()
	defer inW.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, testConfig(srv.URL), "", inR, io.Discard, io.Discard)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("repl did not stop on cancel")
	}
}

func TestRunReportsNonReadyStatus(t *testing.T) {
	svc := fakeservice.New()
	svc.ReadyAfter = 1000
	svc.ProcessingStatus = models.StatusError
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	pdfPath := writeFile(t, "story.pdf", "%PDF-1.4\n%%EOF\n")
	inR, inW := io.Pipe()
	out := &syncBuffer{}
	done := make(chan error, 1)
	go func() {
		done <- run(context.Background(), testConfig(srv.URL), pdfPath, inR, out, io.Discard)
	}()

	// keep asking until a poll has landed
	require.Eventually(t, func() bool {
		_, _ = io.WriteString(inW, "/status\n")
		return bytes.Contains([]byte(out.String()), []byte("Status: error"))
	}, 2*time.Second, 20*time.Millisecond)
	assert.Contains(t, out.String(), "(polling)")
	assert.NotContains(t, out.String(), "is ready")

	_, err := io.WriteString(inW, "exit\n")
	require.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("repl did not exit")
	}
}

func TestSendWhileProcessingKeepsSpinner(t *testing.T) {
	svc := fakeservice.New()
	svc.ReadyAfter = 1000
	srv := httptest.NewServer(svc.Handler())
	defer srv.Close()

	c, err := client.NewWithConfig(client.ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)

	out := &syncBuffer{}
	v := newView(out, true)
	sess, err := session.NewWithConfig(session.SessionConfig{
		Service:      c,
		PollInterval: 10 * time.Millisecond,
		OnStatus:     v.status,
	})
	require.NoError(t, err)
	defer v.finishSpinner()
	defer sess.Close()

	r := &repl{ctx: context.Background(), sess: sess, view: v, baseURL: c.BaseURL()}
	r.upload(writeFile(t, "story.pdf", "%PDF-1.4\n%%EOF\n"))

	spinner := func() *progressbar.ProgressBar {
		v.mu.Lock()
		defer v.mu.Unlock()
		return v.spinner
	}
	processing := spinner()
	require.NotNil(t, processing)

	r.send("too early")
	assert.Same(t, processing, spinner())
	assert.Contains(t, out.String(), msgNotReady)
	assert.Empty(t, svc.Queries())
}

func TestSpinnerDescriptionIsNotAFormat(t *testing.T) {
	out := &syncBuffer{}
	v := newView(out, false)

	v.startSpinner("Uploading 100%done.pdf...")
	assert.Contains(t, out.String(), "Uploading 100%done.pdf...")
	assert.NotContains(t, out.String(), "%!")
}
