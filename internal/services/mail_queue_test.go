package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/taskhub/backend/internal/config"
)

func TestSyncMailQueue_NoSender(t *testing.T) {
	q := NewSyncMailQueue()

	if q.IsAsync() {
		t.Error("sync queue should report IsAsync false")
	}
	// Without a sender the mail is dropped, not an error
	if err := q.Enqueue(&Mail{To: "a@example.com", Subject: "hi"}); err != nil {
		t.Errorf("Enqueue without sender should not fail: %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestSyncMailQueue_Delivers(t *testing.T) {
	q := NewSyncMailQueue()
	delivered := make(chan *Mail, 1)
	q.SetSender(func(ctx context.Context, m *Mail) error {
		delivered <- m
		return nil
	})

	if err := q.Enqueue(&Mail{To: "a@example.com", Subject: "hi", Body: "<p>hello</p>"}); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}

	select {
	case m := <-delivered:
		if m.To != "a@example.com" || m.Subject != "hi" {
			t.Errorf("unexpected mail: %+v", m)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("mail was not delivered")
	}
}

func TestNotification_ProjectInvitation(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Frontend.BaseURL = "https://app.example.com"

	q := NewSyncMailQueue()
	delivered := make(chan *Mail, 1)
	q.SetSender(func(ctx context.Context, m *Mail) error {
		delivered <- m
		return nil
	})

	notifier := NewNotificationService(cfg, q)
	notifier.SendProjectInvitation("pat@example.com", "Apollo", "Olive Owner", "tok123")

	select {
	case m := <-delivered:
		if m.To != "pat@example.com" {
			t.Errorf("to = %q", m.To)
		}
		if !strings.Contains(m.Subject, "Apollo") {
			t.Errorf("subject should name the project, got %q", m.Subject)
		}
		if !strings.Contains(m.Body, "https://app.example.com/invitation?token=tok123") {
			t.Errorf("body should carry the invitation link, got %q", m.Body)
		}
		if !strings.Contains(m.Body, "Olive Owner") {
			t.Error("body should name the inviter")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("invitation mail was not delivered")
	}
}

func TestNotification_TaskAssigned(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Frontend.BaseURL = "https://app.example.com"

	q := NewSyncMailQueue()
	delivered := make(chan *Mail, 1)
	q.SetSender(func(ctx context.Context, m *Mail) error {
		delivered <- m
		return nil
	})

	notifier := NewNotificationService(cfg, q)
	notifier.SendTaskAssigned("pat@example.com", "Apollo", "Design schema", 7, 42)

	select {
	case m := <-delivered:
		if !strings.Contains(m.Body, "https://app.example.com/projects/7/tasks/42") {
			t.Errorf("body should deep-link the task, got %q", m.Body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("assignment mail was not delivered")
	}
}

func TestDeliver_SMTPDisabled(t *testing.T) {
	notifier := newTestNotifier()

	// With SMTP disabled delivery is a logged no-op
	err := notifier.Deliver(context.Background(), &Mail{To: "a@example.com", Subject: "hi"})
	if err != nil {
		t.Errorf("disabled SMTP should not error: %v", err)
	}
}
