package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"mediaconv/internal/config"
	"mediaconv/internal/conversion"
	"mediaconv/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newServer(t *testing.T, status int) (*httptest.Server, func() []captured) {
	t.Helper()
	var mu sync.Mutex
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte("nope"))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []captured {
		mu.Lock()
		defer mu.Unlock()
		return append([]captured(nil), got...)
	}
}

func summaryWith(statuses ...conversion.Status) conversion.Summary {
	started := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	summary := conversion.Summary{
		RunInfo:  conversion.RunInfo{ID: "run", Root: "/media", Started: started},
		Finished: started.Add(90 * time.Second),
	}
	for i, status := range statuses {
		outcome := conversion.Outcome{
			Job:    conversion.Job{Source: "/media/clip" + string(rune('a'+i)) + ".avi", Target: "/media/clip.mp4", Index: i + 1},
			Status: status,
		}
		if status == conversion.StatusFailed {
			outcome.Err = errors.New("exit status 1")
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	return summary
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	if err := svc.NotifyRunCompleted(context.Background(), summaryWith(conversion.StatusFailed)); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNotifyRunCompleted(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(srv.URL))

	if err := svc.NotifyRunCompleted(context.Background(), summaryWith(conversion.StatusSucceeded, conversion.StatusSucceeded)); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if err := svc.NotifyRunCompleted(context.Background(), summaryWith(conversion.StatusSucceeded, conversion.StatusFailed)); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}

	got := requests()
	if len(got) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(got))
	}
	if got[0].title != "mediaconv - Run Complete" || got[0].priority != "" {
		t.Fatalf("unexpected clean run notification: %#v", got[0])
	}
	if !strings.HasPrefix(got[0].body, "2 converted in 1m30s") {
		t.Fatalf("unexpected body %q", got[0].body)
	}
	if got[1].title != "mediaconv - Run Complete (with errors)" || got[1].priority != "high" {
		t.Fatalf("unexpected failure notification: %#v", got[1])
	}
	if !strings.Contains(got[1].body, "1 failed") || !strings.Contains(got[1].body, "Failed to convert clipb.avi: exit status 1") {
		t.Fatalf("unexpected failure body %q", got[1].body)
	}
	if got[1].tags != "mediaconv,completed,warning" {
		t.Fatalf("unexpected tags %q", got[1].tags)
	}
}

func TestOnlyFailuresSkipsCleanRuns(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	cfg := configFor(srv.URL)
	cfg.Notifications.OnlyFailures = true
	svc := notifications.NewService(cfg)

	if err := svc.NotifyRunCompleted(context.Background(), summaryWith(conversion.StatusSucceeded)); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(requests()) != 0 {
		t.Fatal("clean run should not notify when only failures are requested")
	}
}

func TestEmptyRunIsQuiet(t *testing.T) {
	srv, requests := newServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(srv.URL))
	if err := svc.NotifyRunCompleted(context.Background(), summaryWith()); err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(requests()) != 0 {
		t.Fatal("a run with nothing to convert should not notify")
	}
}

func TestNotifyRunFailedAndServerErrors(t *testing.T) {
	srv, requests := newServer(t, http.StatusBadGateway)
	svc := notifications.NewService(configFor(srv.URL))

	err := svc.NotifyRunFailed(context.Background(), "/media", errors.New("permission denied"))
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
	got := requests()
	if len(got) != 1 || !strings.Contains(got[0].body, "permission denied") || got[0].title != "mediaconv - Run Failed" {
		t.Fatalf("unexpected request: %#v", got)
	}
}
