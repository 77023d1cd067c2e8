package services

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSystemHealthReportOK(t *testing.T) {
	started := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	now := started.Add(3 * time.Hour)

	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: &stubHealthRepository{},
		Clock:            fixedClock(now),
		Build: BuildInfo{
			Version:     "1.4.0",
			CommitSHA:   "abc1234",
			Environment: "production",
			StartedAt:   started,
		},
	})
	if err != nil {
		t.Fatalf("new system service: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("health report: %v", err)
	}
	if report.Status != "ok" || report.Detail != "" {
		t.Fatalf("unexpected status %q detail %q", report.Status, report.Detail)
	}
	if report.Version != "1.4.0" || report.CommitSHA != "abc1234" || report.Environment != "production" {
		t.Fatalf("build info not propagated: %+v", report)
	}
	if report.Uptime != 3*time.Hour {
		t.Fatalf("expected 3h uptime, got %v", report.Uptime)
	}
	if !report.GeneratedAt.Equal(now) {
		t.Fatalf("unexpected timestamp %v", report.GeneratedAt)
	}
}

func TestSystemHealthReportSurfacesStoreFailure(t *testing.T) {
	now := time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)
	svc, err := NewSystemService(SystemServiceDeps{
		HealthRepository: &stubHealthRepository{err: errors.New("firestore unreachable")},
		Clock:            fixedClock(now),
	})
	if err != nil {
		t.Fatalf("new system service: %v", err)
	}

	report, err := svc.HealthReport(context.Background())
	if err != nil {
		t.Fatalf("health report: %v", err)
	}
	if report.Status != "error" {
		t.Fatalf("expected error status, got %q", report.Status)
	}
	if report.Detail != "firestore unreachable" {
		t.Fatalf("unexpected detail %q", report.Detail)
	}
}
