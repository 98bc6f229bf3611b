package sshconn

import (
	"context"
	"testing"
	"time"
)

func TestJitteredStaysWithinWindow(t *testing.T) {
	base := 1 * time.Second
	for i := 0; i < 50; i++ {
		d := jittered(base)
		if d < base/2 || d > base {
			t.Fatalf("jittered(%v) = %v, want within [%v, %v]", base, d, base/2, base)
		}
	}
}

func TestReconnectGivesUpAfterMaxAttempts(t *testing.T) {
	c := NewConnector(zeroDelaySSHConfig(), nil)
	c.cfg.MaxReconnectAttempts = 1

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Reconnect(ctx, Target{Host: "127.0.0.1", Port: 1}, AuthMethod{Username: "root", Password: "x"})
	if err == nil {
		t.Fatal("expected reconnect to a closed port to fail")
	}
}
