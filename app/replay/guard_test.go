package replay

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGuardRemembersWithinWindow(t *testing.T) {
	guard := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	seen, err := guard.Remember(ctx, "payu:TXN-1:success:2550")
	if err != nil || seen {
		t.Fatalf("first Remember = (%v, %v), want (false, nil)", seen, err)
	}

	seen, err = guard.Remember(ctx, "payu:TXN-1:success:2550")
	if err != nil || !seen {
		t.Fatalf("second Remember = (%v, %v), want (true, nil)", seen, err)
	}
}

func TestMemoryGuardDistinguishesKeys(t *testing.T) {
	guard := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	_, _ = guard.Remember(ctx, "payu:TXN-1:success:2550")

	seen, _ := guard.Remember(ctx, "payu:TXN-1:failure:2550")
	if seen {
		t.Fatal("different status must be a fresh key")
	}
	seen, _ = guard.Remember(ctx, "payu:TXN-2:success:2550")
	if seen {
		t.Fatal("different transaction must be a fresh key")
	}
}

func TestMemoryGuardExpiresAfterWindow(t *testing.T) {
	guard := NewMemoryGuard(5 * time.Minute)
	current := time.Unix(1_700_000_000, 0)
	guard.now = func() time.Time { return current }
	ctx := context.Background()

	if seen, _ := guard.Remember(ctx, "key"); seen {
		t.Fatal("fresh key reported as seen")
	}

	current = current.Add(4 * time.Minute)
	if seen, _ := guard.Remember(ctx, "key"); !seen {
		t.Fatal("key inside window not remembered")
	}

	current = current.Add(6 * time.Minute)
	if seen, _ := guard.Remember(ctx, "key"); seen {
		t.Fatal("key outside window still remembered")
	}
}

func TestMemoryGuardForgetReleasesKey(t *testing.T) {
	guard := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	_, _ = guard.Remember(ctx, "payu:TXN-1:success:2550")
	if err := guard.Forget(ctx, "payu:TXN-1:success:2550"); err != nil {
		t.Fatalf("Forget failed: %v", err)
	}

	if seen, _ := guard.Remember(ctx, "payu:TXN-1:success:2550"); seen {
		t.Fatal("forgotten key still reported as seen")
	}
}

func TestMemoryGuardCapSkipsRecording(t *testing.T) {
	guard := NewMemoryGuard(time.Hour)
	guard.maxEntries = 1
	ctx := context.Background()

	_, _ = guard.Remember(ctx, "first")

	if seen, _ := guard.Remember(ctx, "second"); seen {
		t.Fatal("unrecorded key must not be reported as seen")
	}
	// Still not recorded, so a replay of "second" passes through.
	if seen, _ := guard.Remember(ctx, "second"); seen {
		t.Fatal("key skipped at cap must stay unrecorded")
	}
	if seen, _ := guard.Remember(ctx, "first"); !seen {
		t.Fatal("recorded key lost")
	}
}
