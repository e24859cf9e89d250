package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/pdfchat/internal/models"
)

func TestPollerWaitsOneIntervalBeforeFirstCheck(t *testing.T) {
	const interval = 50 * time.Millisecond
	p := newPoller(context.Background(), interval)

	start := time.Now()
	var first time.Duration
	go p.run(func(ctx context.Context) bool {
		first = time.Since(start)
		return true
	})

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not finish")
	}
	assert.GreaterOrEqual(t, first, interval-10*time.Millisecond)
}

func TestPollerStop(t *testing.T) {
	p := newPoller(context.Background(), 5*time.Millisecond)

	var calls int32
	go p.run(func(ctx context.Context) bool {
		atomic.AddInt32(&calls, 1)
		return false
	})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) >= 2 }, time.Second, time.Millisecond)
	p.stop()
	p.stop()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestTranscript(t *testing.T) {
	var tr Transcript
	tr.Append(models.Message{Sender: models.SenderUser, Text: "a"})
	tr.Append(models.Message{Sender: models.SenderBot, Text: "b"})
	assert.Equal(t, 2, tr.Len())

	msgs := tr.Messages()
	msgs[0].Text = "changed"
	assert.Equal(t, "a", tr.Messages()[0].Text)

	tr.Replace(models.Message{Sender: models.SenderBot, Text: "welcome"})
	assert.Equal(t, []models.Message{{Sender: models.SenderBot, Text: "welcome"}}, tr.Messages())

	tr.Reset()
	assert.Zero(t, tr.Len())
	assert.Empty(t, tr.Messages())
}
