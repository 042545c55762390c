package telemetry

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestStart_NoEndpointIsNoop(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tel := New(Config{}, logger)

	if err := tel.Start(); err != nil {
		t.Fatalf("start without endpoint: %v", err)
	}
	if tel.provider != nil {
		t.Error("expected no provider without an endpoint")
	}
	if err := tel.Stop(context.Background()); err != nil {
		t.Errorf("stop without provider: %v", err)
	}
}

func TestNew_DefaultsServiceName(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tel := New(Config{Endpoint: "localhost:4318"}, logger)

	if tel.config.ServiceName != "dbset" {
		t.Errorf("service name = %q, want dbset", tel.config.ServiceName)
	}
}
