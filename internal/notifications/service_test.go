package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"personid/internal/config"
	"personid/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRenamed(context.Background(), "/lib/a", "/lib/b"); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
	if err := notifications.NewService(nil).TestNotification(context.Background()); err != nil {
		t.Fatalf("expected noop notifier for nil config, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "renamed",
			send: func(svc notifications.Service) error {
				return svc.NotifyRenamed(context.Background(), "/lib/はなこ", "/lib/1990-01-01 山田花子")
			},
			expectTitle:   "personid - Folder Renamed",
			expectMessage: "はなこ -> 1990-01-01 山田花子",
			expectTags:    "personid,rename",
		},
		{
			name: "scan completed",
			send: func(svc notifications.Service) error {
				return svc.NotifyScanCompleted(context.Background(), notifications.ScanSummary{
					Root: "/lib", Total: 5, Renamed: 3, Unresolved: 2, Duration: 1500 * time.Millisecond,
				})
			},
			expectTitle:   "personid - Scan Complete",
			expectMessage: "/lib\n5 folders in 2s: 3 renamed, 2 unresolved",
			expectTags:    "personid,scan,completed",
		},
		{
			name: "scan completed with failures",
			send: func(svc notifications.Service) error {
				return svc.NotifyScanCompleted(context.Background(), notifications.ScanSummary{
					Total: 2, Renamed: 1, Failed: 1,
				})
			},
			expectTitle:    "personid - Scan Complete (with errors)",
			expectMessage:  "2 folders in 0s: 1 renamed, 0 unresolved, 1 rename(s) failed",
			expectTags:     "personid,scan,completed,warning",
			expectPriority: "high",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("target exists"), "rename")
			},
			expectTitle:    "personid - Error",
			expectMessage:  "Error with rename: target exists",
			expectTags:     "personid,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var captured struct {
				title    string
				tags     string
				priority string
				body     string
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("unexpected method: %s", r.Method)
				}
				captured.title = r.Header.Get("Title")
				captured.tags = r.Header.Get("Tags")
				captured.priority = r.Header.Get("Priority")
				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("read body: %v", err)
				}
				captured.body = string(body)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			cfg.Notifications.RequestTimeoutSeconds = 5

			if err := tc.send(notifications.NewService(&cfg)); err != nil {
				t.Fatalf("notification returned error: %v", err)
			}

			if captured.title != tc.expectTitle {
				t.Fatalf("expected title %q, got %q", tc.expectTitle, captured.title)
			}
			if captured.body != tc.expectMessage {
				t.Fatalf("expected message %q, got %q", tc.expectMessage, captured.body)
			}
			if captured.tags != tc.expectTags {
				t.Fatalf("expected tags %q, got %q", tc.expectTags, captured.tags)
			}
			if captured.priority != tc.expectPriority {
				t.Fatalf("expected priority %q, got %q", tc.expectPriority, captured.priority)
			}
		})
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic is reserved", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL

	err := notifications.NewService(&cfg).TestNotification(context.Background())
	if err == nil || !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "topic is reserved") {
		t.Fatalf("expected status error, got %v", err)
	}
}
