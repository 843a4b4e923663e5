package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mediaconv/internal/config"
	"mediaconv/internal/conversion"
)

const userAgent = "mediaconv/1"

// Service sends run notifications.
type Service interface {
	NotifyRunCompleted(ctx context.Context, summary conversion.Summary) error
	NotifyRunFailed(ctx context.Context, root string, err error) error
	TestNotification(ctx context.Context) error
}

// NewService builds an ntfy-backed service, or a noop when no topic is set.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		onlyFailures: cfg.Notifications.OnlyFailures,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	onlyFailures bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, summary conversion.Summary) error {
	failed := summary.Count(conversion.StatusFailed)
	if n.onlyFailures && failed == 0 {
		return nil
	}
	if len(summary.Outcomes) == 0 && !n.onlyFailures {
		return nil
	}

	elapsed := summary.Finished.Sub(summary.Started).Round(time.Second)
	if elapsed < 0 {
		elapsed = 0
	}

	var message strings.Builder
	fmt.Fprintf(&message, "%d converted", summary.Count(conversion.StatusSucceeded))
	if failed > 0 {
		fmt.Fprintf(&message, ", %d failed", failed)
	}
	if skipped := summary.Count(conversion.StatusSkipped); skipped > 0 {
		fmt.Fprintf(&message, ", %d skipped", skipped)
	}
	if canceled := summary.Count(conversion.StatusCanceled); canceled > 0 {
		fmt.Fprintf(&message, ", %d canceled", canceled)
	}
	fmt.Fprintf(&message, " in %s\n%s", elapsed, summary.Root)
	for _, outcome := range summary.Outcomes {
		if outcome.Status == conversion.StatusFailed {
			message.WriteString("\n")
			message.WriteString(outcome.Message())
		}
	}

	data := payload{
		title:   "mediaconv - Run Complete",
		message: message.String(),
		tags:    []string{"mediaconv", "completed"},
	}
	if failed > 0 {
		data.title = "mediaconv - Run Complete (with errors)"
		data.tags = []string{"mediaconv", "completed", "warning"}
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunFailed(ctx context.Context, root string, err error) error {
	detail := "unknown"
	if err != nil {
		detail = strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:    "mediaconv - Run Failed",
		message:  fmt.Sprintf("Run over %s did not start: %s", root, detail),
		tags:     []string{"mediaconv", "error"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "mediaconv - Test",
		message:  "Notification system test",
		tags:     []string{"mediaconv", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, conversion.Summary) error { return nil }
func (noopService) NotifyRunFailed(context.Context, string, error) error         { return nil }
func (noopService) TestNotification(context.Context) error                       { return nil }
