package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"personid/internal/config"
)

const userAgent = "personid/0.1.0"

// ScanSummary is the outcome of one applied scan.
type ScanSummary struct {
	Root       string
	Total      int
	Renamed    int
	Unresolved int
	Failed     int
	Duration   time.Duration
}

// Service defines the notification surface used by the scan and watch
// commands.
type Service interface {
	NotifyRenamed(ctx context.Context, from, to string) error
	NotifyScanCompleted(ctx context.Context, summary ScanSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRenamed(ctx context.Context, from, to string) error {
	from = filepath.Base(strings.TrimSpace(from))
	to = filepath.Base(strings.TrimSpace(to))
	data := payload{
		title:   "personid - Folder Renamed",
		message: fmt.Sprintf("%s -> %s", from, to),
		tags:    []string{"personid", "rename"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyScanCompleted(ctx context.Context, summary ScanSummary) error {
	duration := summary.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	title := "personid - Scan Complete"
	tags := []string{"personid", "scan", "completed"}
	priority := ""
	if summary.Failed > 0 {
		title = "personid - Scan Complete (with errors)"
		tags = append(tags, "warning")
		priority = "high"
	}

	var builder strings.Builder
	if root := strings.TrimSpace(summary.Root); root != "" {
		fmt.Fprintf(&builder, "%s\n", root)
	}
	fmt.Fprintf(&builder, "%d folders in %s: %d renamed, %d unresolved", summary.Total, duration, summary.Renamed, summary.Unresolved)
	if summary.Failed > 0 {
		fmt.Fprintf(&builder, ", %d rename(s) failed", summary.Failed)
	}

	return n.send(ctx, payload{
		title:    title,
		message:  builder.String(),
		tags:     tags,
		priority: priority,
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "personid - Error",
		message:  builder.String(),
		tags:     []string{"personid", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "personid - Test",
		message:  "Notification system test",
		tags:     []string{"personid", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
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

func (noopService) NotifyRenamed(context.Context, string, string) error    { return nil }
func (noopService) NotifyScanCompleted(context.Context, ScanSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
