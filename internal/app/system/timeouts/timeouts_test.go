package timeouts

import (
	"context"
	"testing"
	"time"
)

func TestConfigure_IgnoresZeroValues(t *testing.T) {
	t.Cleanup(Reset)

	Configure(Config{Short: 750 * time.Millisecond})

	got := Current()
	if got.Short != 750*time.Millisecond {
		t.Errorf("Short = %v, want 750ms", got.Short)
	}
	if got.Ping != DefaultPing {
		t.Errorf("Ping = %v, want default %v", got.Ping, DefaultPing)
	}
	if got.Long != DefaultLong {
		t.Errorf("Long = %v, want default %v", got.Long, DefaultLong)
	}
}

func TestReset(t *testing.T) {
	Configure(Config{Ping: time.Minute, Short: time.Minute, Long: time.Minute})
	Reset()

	if c := Current(); c != (Config{Ping: DefaultPing, Short: DefaultShort, Long: DefaultLong}) {
		t.Errorf("after Reset got %+v", c)
	}
}

func TestWithShort_SetsDeadline(t *testing.T) {
	t.Cleanup(Reset)
	Configure(Config{Short: time.Second})

	ctx, cancel := WithShort(context.Background())
	defer cancel()

	dl, ok := ctx.Deadline()
	if !ok {
		t.Fatal("expected a deadline")
	}
	if remaining := time.Until(dl); remaining <= 0 || remaining > time.Second {
		t.Errorf("unexpected remaining time %v", remaining)
	}
}
