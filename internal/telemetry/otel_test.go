package telemetry

import (
	"context"
	"testing"
	"time"
)

// InitTracer replaces global otel state, so these tests run sequentially.
func TestInitTracer(t *testing.T) {
	tests := []struct {
		name        string
		serviceName string
		endpoint    string
		wantErr     bool
	}{
		{name: "valid configuration", serviceName: "quests-api", endpoint: "localhost:4318"},
		{name: "empty service name", serviceName: "", endpoint: "localhost:4318"},
		{name: "default endpoint", serviceName: "quests-api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			tp, err := InitTracer(ctx, tt.serviceName, tt.endpoint)
			if (err != nil) != tt.wantErr {
				t.Fatalf("InitTracer() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err := Shutdown(ctx, tp); err != nil {
				t.Errorf("Shutdown() error = %v", err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	t.Run("disabled returns no-op shutdown", func(t *testing.T) {
		shutdown, err := Setup(context.Background(), false, "quests-api", "", nil)
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	})

	t.Run("enabled installs provider", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		shutdown, err := Setup(ctx, true, "quests-worker", "localhost:4318", nil)
		if err != nil {
			t.Fatalf("Setup() error = %v", err)
		}
		if err := shutdown(ctx); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	})
}

func TestShutdown_NilProvider(t *testing.T) {
	if err := Shutdown(context.Background(), nil); err != nil {
		t.Errorf("Shutdown() with nil provider should not error, got: %v", err)
	}
}
