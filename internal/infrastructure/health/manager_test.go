package health

import (
	"fmt"
	"testing"
)

func TestManagerAggregation(t *testing.T) {
	m := NewManager(nil)

	if !m.IsHealthy() {
		t.Error("empty health manager should be healthy")
	}

	m.Register("journal", func() error { return nil })
	if !m.IsHealthy() {
		t.Error("healthy component should not fail the manager")
	}

	m.Register("session", func() error { return fmt.Errorf("disconnected") })
	if m.IsHealthy() {
		t.Error("unhealthy component should fail the manager")
	}

	status := m.Status()
	if status["journal"] != "Healthy" {
		t.Errorf("journal status = %q, want Healthy", status["journal"])
	}
	if status["session"] != "Unhealthy: disconnected" {
		t.Errorf("session status = %q", status["session"])
	}
}
