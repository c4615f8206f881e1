package services_test

import (
	"context"
	"testing"

	"unjam/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRunID(ctx, "run-42")
	ctx = services.WithStep(ctx, "restarting_sync_client")
	ctx = services.WithTriggerSource(ctx, "idle")

	if id, ok := services.RunIDFromContext(ctx); !ok || id != "run-42" {
		t.Fatalf("unexpected run id: %v %v", id, ok)
	}
	if step, ok := services.StepFromContext(ctx); !ok || step != "restarting_sync_client" {
		t.Fatalf("unexpected step: %v %v", step, ok)
	}
	if src, ok := services.TriggerSourceFromContext(ctx); !ok || src != "idle" {
		t.Fatalf("unexpected trigger source: %v %v", src, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStep(ctx, "")
	if _, ok := services.StepFromContext(ctx); ok {
		t.Fatal("expected no step value")
	}
	ctx = services.WithRunID(ctx, "")
	if _, ok := services.RunIDFromContext(ctx); ok {
		t.Fatal("expected no run id value")
	}
}
