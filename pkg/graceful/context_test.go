package graceful

import (
	"context"
	"syscall"
	"testing"
	"time"
)

func TestContext_CancelFuncStopsContext(t *testing.T) {
	ctx, cancel := Context(context.Background())
	cancel()

	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not canceled after cancel()")
	}
}

func TestContext_SignalCancelsContext(t *testing.T) {
	ctx, cancel := Context(context.Background())
	defer cancel()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("sending signal: %v", err)
	}

	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("context not canceled after SIGTERM")
	}
}
