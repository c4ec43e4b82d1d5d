package natsadapter

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
)

type fakeSub struct {
	calls int
	err   error
}

func (f *fakeSub) Unsubscribe() error {
	f.calls++
	return f.err
}

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestUnsubscribeFunc_LogsFailure(t *testing.T) {
	var buf bytes.Buffer
	sub := &fakeSub{err: nats.ErrConnectionClosed}

	unsubscribe := unsubscribeFunc(sub, "mapsketch.state", debugLogger(&buf))
	unsubscribe()
	unsubscribe()

	assert.Equal(t, 1, sub.calls)
	out := buf.String()
	assert.Contains(t, out, "level=DEBUG")
	assert.Contains(t, out, "nats unsubscribe failed")
	assert.Contains(t, out, "subject=mapsketch.state")
	assert.Contains(t, out, nats.ErrConnectionClosed.Error())
}

func TestUnsubscribeFunc_SilentOnSuccess(t *testing.T) {
	var buf bytes.Buffer
	sub := &fakeSub{}

	unsubscribeFunc(sub, "mapsketch.state", debugLogger(&buf))()

	assert.Equal(t, 1, sub.calls)
	assert.Empty(t, buf.String())
}

func TestUnsubscribeFunc_NotLoggedAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	unsubscribeFunc(&fakeSub{err: errors.New("boom")}, "s", log)()

	assert.Empty(t, buf.String())
}
