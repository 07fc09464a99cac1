package background

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunAllocatesPrefixedHandles(t *testing.T) {
	e := NewExecutor()

	th := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		out.Append("teammate work")
		return nil
	}, TaskTypeTeammate)

	bh := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		out.Append("shell work")
		return nil
	}, "bash")

	if !strings.HasPrefix(th, "t") {
		t.Errorf("teammate handle = %q, want t prefix", th)
	}
	if !strings.HasPrefix(bh, "b") {
		t.Errorf("default handle = %q, want b prefix", bh)
	}
	if th == bh {
		t.Errorf("handles should be unique, both %q", th)
	}
}

func TestOutputReturnsOnlyNewOutput(t *testing.T) {
	e := NewExecutor()
	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		out.Append("first")
		return nil
	}, "bash")

	e.Wait(context.Background(), h)

	got, err := e.Output(h, false, 0)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got != "first" {
		t.Errorf("first read = %q, want first", got)
	}

	got, err = e.Output(h, false, 0)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got != "" {
		t.Errorf("second read = %q, want empty (no new output)", got)
	}
}

func TestOutputBlocksUntilNewOutput(t *testing.T) {
	e := NewExecutor()
	release := make(chan struct{})
	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		<-release
		out.Append("late")
		return nil
	}, "bash")

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	got, err := e.Output(h, true, 2*time.Second)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if got != "late" {
		t.Errorf("blocking read = %q, want late", got)
	}
}

func TestOutputUnknownHandle(t *testing.T) {
	e := NewExecutor()
	_, err := e.Output("t99", false, 0)
	if !errors.Is(err, ErrUnknownHandle) {
		t.Errorf("err = %v, want ErrUnknownHandle", err)
	}
}

func TestWorkerErrorCapturedAsTerminalLine(t *testing.T) {
	e := NewExecutor()
	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		out.Append("partial")
		return errors.New("disk full")
	}, "bash")

	e.Wait(context.Background(), h)

	got, _ := e.Output(h, false, 0)
	if !strings.Contains(got, "partial") || !strings.Contains(got, "Error: disk full") {
		t.Errorf("output = %q, want partial output plus terminal error line", got)
	}
}

func TestWorkerPanicCaptured(t *testing.T) {
	e := NewExecutor()
	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		panic("boom")
	}, "bash")

	e.Wait(context.Background(), h)

	got, _ := e.Output(h, false, 0)
	if !strings.Contains(got, "Error: panic: boom") {
		t.Errorf("output = %q, want captured panic line", got)
	}
	if e.Running(h) {
		t.Error("unit should not be running after panic")
	}
}

func TestStopCancelsUnit(t *testing.T) {
	e := NewExecutor()
	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		<-ctx.Done()
		return ctx.Err()
	}, TaskTypeTeammate)

	if !e.Running(h) {
		t.Fatal("unit should be running before Stop")
	}
	if err := e.Stop(h); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if e.Running(h) {
		t.Error("unit should have stopped")
	}
}

func TestPendingReportsChannelAtomically(t *testing.T) {
	out := NewOutput()

	hasNew, updated := out.pending()
	if hasNew {
		t.Fatal("fresh output reports pending data")
	}

	out.Append("a")
	select {
	case <-updated:
	default:
		t.Fatal("append did not close the update channel")
	}

	// The check must not consume anything.
	if got, _ := out.readNew(); got != "a" {
		t.Errorf("readNew = %q, want %q", got, "a")
	}
	if hasNew, _ := out.pending(); hasNew {
		t.Error("pending after full read")
	}
}

func TestBlockingReadsLoseNothing(t *testing.T) {
	e := NewExecutor()
	const chunks = 500

	h := e.Run(context.Background(), func(ctx context.Context, out *Output) error {
		for i := 0; i < chunks; i++ {
			out.Append("x")
		}
		return nil
	}, "")

	var total int
	for e.Running(h) || total < chunks {
		got, err := e.Output(h, true, 100*time.Millisecond)
		if err != nil {
			t.Fatalf("Output: %v", err)
		}
		total += len(got)
		if total > chunks {
			break
		}
	}
	if total != chunks {
		t.Errorf("read %d bytes, want %d", total, chunks)
	}
}
