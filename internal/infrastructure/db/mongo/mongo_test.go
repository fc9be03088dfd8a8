package mongo

import (
	"context"
	"testing"
	"time"
)

func TestOpen_UnreachableServer(t *testing.T) {
	start := time.Now()
	s, err := Open(context.Background(), Config{
		URI:      "mongodb://127.0.0.1:1",
		Database: "console_test",
		Timeout:  200 * time.Millisecond,
	})
	if err == nil {
		_ = s.Close(context.Background())
		t.Fatal("expected an error for an unreachable server")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Open took %v, timeout not applied", elapsed)
	}
}
