package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go/protocol"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

type toolCall struct {
	Name      string
	Arguments map[string]any
}

// mockTransport implements client.Transport, recording tool calls and
// answering them with canned per-tool results.
type mockTransport struct {
	closed  bool
	calls   []toolCall
	results map[string]map[string]any
}

func newMockTransport() *mockTransport {
	return &mockTransport{results: make(map[string]map[string]any)}
}

func (m *mockTransport) setToolResponse(tool, text string, isError bool) {
	result := map[string]any{"content": []any{map[string]any{"type": "text", "text": text}}}
	if isError {
		result["isError"] = true
	}
	m.results[tool] = result
}

func (m *mockTransport) Send(_ context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch {
	case req.Method == "initialize":
		return protocol.NewResponse(req.ID, map[string]any{
			"serverInfo":      map[string]any{"name": "mock", "version": "1.0.0"},
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]any{"tools": map[string]any{}},
		}), nil
	case req.IsNotification():
		return nil, nil
	case req.Method == "tools/call":
		var envelope struct {
			Params toolCall `json:"params"`
		}
		raw, _ := json.Marshal(req)
		_ = json.Unmarshal(raw, &envelope)
		m.calls = append(m.calls, envelope.Params)
		if res, ok := m.results[envelope.Params.Name]; ok {
			return protocol.NewResponse(req.ID, res), nil
		}
	}
	return protocol.NewResponse(req.ID, map[string]any{
		"content": []any{map[string]any{"type": "text", "text": "ok"}},
	}), nil
}

func (m *mockTransport) Close() error {
	m.closed = true
	return nil
}

func newTestMCP(t *testing.T, mt *mockTransport) *MCPClient {
	t.Helper()
	c := NewMCPClient(mt, WithRetry(1, time.Millisecond))
	if _, err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	return c
}

func TestMCPClient_CreateFeature(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(ToolCreateFeature, `{"id":"f1","identifier":"ENG-3","title":"Login"}`, false)
	c := newTestMCP(t, mt)

	f, err := c.CreateFeature(context.Background(), tracker.CreateFeatureInput{
		Title:          "Login",
		EpicID:         "e1",
		ExecutionOrder: 2,
		Complexity:     "simple",
		Dependencies:   []string{"ENG-2"},
	})
	if err != nil {
		t.Fatalf("CreateFeature: %v", err)
	}
	if f.Identifier != "ENG-3" {
		t.Errorf("unexpected feature %+v", f)
	}

	if len(mt.calls) != 1 || mt.calls[0].Name != ToolCreateFeature {
		t.Fatalf("unexpected calls %+v", mt.calls)
	}
	args := mt.calls[0].Arguments
	if args["epicId"] != "e1" || args["estimatedComplexity"] != "simple" || args["executionOrder"] != float64(2) {
		t.Errorf("unexpected arguments %v", args)
	}
}

func TestMCPClient_ToolError(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(ToolCreateTask, "feature not found", true)
	c := newTestMCP(t, mt)

	_, err := c.CreateTask(context.Background(), tracker.CreateTaskInput{Title: "T", FeatureID: "nope"})
	var toolErr *tracker.ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.Tool != ToolCreateTask || toolErr.Message != "feature not found" {
		t.Errorf("unexpected tool error %+v", toolErr)
	}
}

func TestMCPClient_AnnotationCalls(t *testing.T) {
	mt := newMockTransport()
	c := newTestMCP(t, mt)
	ctx := context.Background()

	if err := c.SetStructuredDescription(ctx, tracker.KindTask, "t1", tracker.StructuredDescription{Summary: "s", RiskLevel: "low"}); err != nil {
		t.Fatalf("SetStructuredDescription: %v", err)
	}
	exit := 0
	if err := c.AddValidation(ctx, "t1", tracker.Validation{Type: "command", Command: "make test", ExpectedExitCode: &exit}); err != nil {
		t.Fatalf("AddValidation: %v", err)
	}

	if len(mt.calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(mt.calls))
	}
	sd := mt.calls[0].Arguments
	if sd["type"] != "task" || sd["id"] != "t1" {
		t.Errorf("unexpected structured description args %v", sd)
	}
	desc, _ := sd["description"].(map[string]any)
	if desc["riskLevel"] != "low" {
		t.Errorf("expected nested descriptor, got %v", sd["description"])
	}
	v := mt.calls[1].Arguments
	if v["taskId"] != "t1" || v["command"] != "make test" || v["expectedExitCode"] != float64(0) {
		t.Errorf("unexpected validation args %v", v)
	}
}

func TestMCPClient_Templates(t *testing.T) {
	mt := newMockTransport()
	mt.setToolResponse(ToolCreateFromTemplate, `{"epic":{"id":"e1","name":"E"},"features":[{"id":"f1","identifier":"ENG-1"}],"tasks":[{"id":"t1","identifier":"ENG-1-1","featureId":"f1"}]}`, false)
	c := newTestMCP(t, mt)

	res, err := c.CreateFromTemplate(context.Background(), "crud", "E", "team-1", tracker.TemplateOptions{})
	if err != nil {
		t.Fatalf("CreateFromTemplate: %v", err)
	}
	if len(res.Features) != 1 || len(res.Tasks) != 1 || res.Tasks[0].FeatureID != "f1" {
		t.Errorf("unexpected result %+v", res)
	}
	if mt.calls[0].Arguments["templateName"] != "crud" || mt.calls[0].Arguments["team"] != "team-1" {
		t.Errorf("unexpected args %v", mt.calls[0].Arguments)
	}
}

func TestMCPClient_Close(t *testing.T) {
	mt := newMockTransport()
	c := newTestMCP(t, mt)
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !mt.closed {
		t.Error("expected transport to be closed")
	}
}
