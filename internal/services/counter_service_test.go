package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCounterServiceNextFormatsValue(t *testing.T) {
	repo := newStubCounterRepository()
	repo.values["invoices:2026"] = 41

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	value, err := svc.Next(context.Background(), "invoices", "2026", CounterGenerationOptions{
		Prefix:    "INV-",
		PadLength: 6,
	})
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if value.Value != 42 {
		t.Fatalf("expected raw value 42, got %d", value.Value)
	}
	if value.Formatted != "INV-000042" {
		t.Fatalf("expected INV-000042, got %s", value.Formatted)
	}
}

func TestCounterServiceNextRequiresScopeAndName(t *testing.T) {
	svc, err := NewCounterService(CounterServiceDeps{Repository: newStubCounterRepository()})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	if _, err := svc.Next(context.Background(), " ", "name", CounterGenerationOptions{}); !errors.Is(err, ErrCounterInvalidInput) {
		t.Fatalf("expected invalid input for empty scope, got %v", err)
	}
	if _, err := svc.Next(context.Background(), "scope", "", CounterGenerationOptions{}); !errors.Is(err, ErrCounterInvalidInput) {
		t.Fatalf("expected invalid input for empty name, got %v", err)
	}
}

func TestCounterServiceNextOrderNumberUsesYearlySequence(t *testing.T) {
	repo := newStubCounterRepository()
	clock := fixedClock(time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC))

	svc, err := NewCounterService(CounterServiceDeps{Repository: repo, Clock: clock})
	if err != nil {
		t.Fatalf("new counter service: %v", err)
	}

	number, err := svc.NextOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if number != "AR-2026-000001" {
		t.Fatalf("expected AR-2026-000001, got %s", number)
	}

	number, err = svc.NextOrderNumber(context.Background())
	if err != nil {
		t.Fatalf("next order number: %v", err)
	}
	if number != "AR-2026-000002" {
		t.Fatalf("expected AR-2026-000002, got %s", number)
	}
	if len(repo.calls) != 2 || repo.calls[0] != "orders:2026" {
		t.Fatalf("expected yearly counter id orders:2026, got %v", repo.calls)
	}
}
