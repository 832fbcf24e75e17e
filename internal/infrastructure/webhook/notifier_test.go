package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/spectree/internal/infrastructure/config"
	"github.com/felixgeelhaar/spectree/pkg/application"
	"github.com/felixgeelhaar/spectree/pkg/domain/planning"
)

func sampleNotification(event string) application.PlanNotification {
	return application.PlanNotification{
		Event:     event,
		RunID:     "run-1",
		Mode:      application.ModeMaterialize,
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Plan: &planning.GeneratedPlan{
			Epic:          planning.GeneratedEpic{ID: "e1", Name: "Search"},
			TotalFeatures: 2,
			TotalTasks:    3,
			Warnings:      []string{"add validation Schema: timeout"},
		},
	}
}

// recorder captures requests; reads go through the mutex so the race
// detector sees the handoff from the server goroutine.
type recorder struct {
	mu       sync.Mutex
	bodies   [][]byte
	headers  []http.Header
	paths    map[string]int
	statuses []int
}

func (rec *recorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.bodies = append(rec.bodies, body)
	rec.headers = append(rec.headers, r.Header.Clone())
	if rec.paths == nil {
		rec.paths = map[string]int{}
	}
	rec.paths[r.URL.Path]++
	status := http.StatusOK
	if n := len(rec.bodies); n <= len(rec.statuses) {
		status = rec.statuses[n-1]
	}
	w.WriteHeader(status)
}

func (rec *recorder) count() int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return len(rec.bodies)
}

func (rec *recorder) last() ([]byte, http.Header) {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.bodies) == 0 {
		return nil, nil
	}
	return rec.bodies[len(rec.bodies)-1], rec.headers[len(rec.headers)-1]
}

func (rec *recorder) hits(path string) int {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.paths[path]
}

func TestNotifier_DeliverySuccess(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	n := NewNotifier([]config.WebhookConfig{{Name: "test", URL: server.URL, Enabled: true}}, nil, nil)
	n.Notify(context.Background(), sampleNotification(application.EventPlanMaterialized))

	if rec.count() != 1 {
		t.Fatalf("expected 1 delivery, got %d", rec.count())
	}
	body, header := rec.last()
	if header.Get("Content-Type") != "application/json" || header.Get(SignatureHeader) != "" {
		t.Errorf("unexpected headers %v", header)
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if p.EventType != application.EventPlanMaterialized || p.Data.RunID != "run-1" || p.Data.Plan.Epic.Name != "Search" {
		t.Errorf("unexpected payload %+v", p)
	}
}

func TestNotifier_HMACSignature(t *testing.T) {
	secret := "test-secret"
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	n := NewNotifier([]config.WebhookConfig{{Name: "test", URL: server.URL, Secret: secret, Enabled: true}}, nil, nil)
	n.Notify(context.Background(), sampleNotification(application.EventPlanDryRun))

	receivedBody, header := rec.last()
	receivedSig := header.Get(SignatureHeader)
	if receivedSig == "" {
		t.Fatalf("expected %s header", SignatureHeader)
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(receivedBody)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if receivedSig != expected {
		t.Errorf("signature mismatch: got %s, want %s", receivedSig, expected)
	}
}

func TestNotifier_FiltersAndDisabled(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	n := NewNotifier([]config.WebhookConfig{
		{Name: "all", URL: server.URL + "/all", Enabled: true},
		{Name: "created", URL: server.URL + "/created", Events: []string{application.EventPlanMaterialized}, Enabled: true},
		{Name: "off", URL: server.URL + "/off"},
	}, nil, nil)

	n.Notify(context.Background(), sampleNotification(application.EventPlanDryRun))
	n.Notify(context.Background(), sampleNotification(application.EventPlanMaterialized))

	if rec.hits("/all") != 2 || rec.hits("/created") != 1 || rec.hits("/off") != 0 {
		t.Errorf("unexpected deliveries all=%d created=%d off=%d", rec.hits("/all"), rec.hits("/created"), rec.hits("/off"))
	}
}

func TestNotifier_RetriesThenDeadLetters(t *testing.T) {
	rec := &recorder{statuses: []int{http.StatusBadGateway, http.StatusBadGateway}}
	server := httptest.NewServer(rec)
	defer server.Close()

	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "dead_letters.jsonl"))
	n := NewNotifier([]config.WebhookConfig{{
		Name:       "flaky",
		URL:        server.URL,
		MaxRetries: 2,
		RetryDelay: 5 * time.Millisecond,
		Enabled:    true,
	}}, store, nil)

	n.Notify(context.Background(), sampleNotification(application.EventPlanMaterialized))

	if rec.count() != 2 {
		t.Errorf("expected 2 attempts, got %d", rec.count())
	}
	entries, err := store.ReadAll()
	if err != nil {
		t.Fatalf("read dead letters: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(entries))
	}
	dl := entries[0]
	if dl.WebhookName != "flaky" || dl.Attempts != 2 || !strings.Contains(dl.Error, "502") {
		t.Errorf("unexpected dead letter %+v", dl)
	}
}

func TestNotifier_RecoversAfterTransientFailure(t *testing.T) {
	rec := &recorder{statuses: []int{http.StatusServiceUnavailable, http.StatusNoContent}}
	server := httptest.NewServer(rec)
	defer server.Close()

	store := NewDeadLetterStore(filepath.Join(t.TempDir(), "dead_letters.jsonl"))
	n := NewNotifier([]config.WebhookConfig{{Name: "x", URL: server.URL, RetryDelay: time.Millisecond, Enabled: true}}, store, nil)
	n.Notify(context.Background(), sampleNotification(application.EventPlanMaterialized))

	if rec.count() != 2 {
		t.Errorf("expected 2 attempts, got %d", rec.count())
	}
	if entries, _ := store.ReadAll(); len(entries) != 0 {
		t.Errorf("expected no dead letters, got %d", len(entries))
	}
}

func TestNotifier_SlackFormat(t *testing.T) {
	rec := &recorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	n := NewNotifier([]config.WebhookConfig{{Name: "chat", URL: server.URL, Format: config.FormatSlack, Enabled: true}}, nil, nil)
	n.Notify(context.Background(), sampleNotification(application.EventPlanMaterialized))

	body, _ := rec.last()
	var msg struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &msg); err != nil {
		t.Fatalf("decode slack message: %v", err)
	}
	want := ":clipboard: Plan created: *Search* (2 features, 3 tasks)\n:warning: 1 annotations could not be applied"
	if msg.Text != want {
		t.Errorf("text = %q, want %q", msg.Text, want)
	}
}
func TestSlackText(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{application.EventPlanDryRun, ":mag: Plan previewed: *Search* (2 features, 3 tasks)"},
		{application.EventPlanTemplate, ":package: Template instantiated: *Search* (2 features, 3 tasks)"},
		{"plan.other", "Spectree event: plan.other"},
	}
	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			if got := slackText(sampleNotification(tt.event)); got != tt.want {
				t.Errorf("slackText() = %q, want %q", got, tt.want)
			}
		})
	}
}
