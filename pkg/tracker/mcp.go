package tracker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/mcp-go/client"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

// Tool names exposed by the tracker's MCP server.
const (
	ToolCreateEpic               = "spectree__create_epic"
	ToolCreateFeature            = "spectree__create_feature"
	ToolUpdateFeature            = "spectree__update_feature"
	ToolCreateTask               = "spectree__create_task"
	ToolSetStructuredDescription = "spectree__set_structured_description"
	ToolAddValidation            = "spectree__add_validation"
	ToolPreviewTemplate          = "spectree__preview_template"
	ToolCreateFromTemplate       = "spectree__create_from_template"
)

// ErrNoContent is returned when a tool result contains no content items.
var ErrNoContent = errors.New("tracker: empty tool result")

// MCPClient reaches the tracker through its MCP tool surface.
type MCPClient struct {
	mcp      *client.Client
	retryCfg retry.Config
	timeout  time.Duration
}

var _ tracker.Client = (*MCPClient)(nil)

// NewMCPClient creates a client wrapping the given MCP transport.
func NewMCPClient(transport client.Transport, opts ...Option) *MCPClient {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return &MCPClient{
		mcp:     client.New(transport, client.WithTimeout(o.timeout)),
		timeout: o.timeout,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Initialize performs the MCP initialize handshake.
func (c *MCPClient) Initialize(ctx context.Context) (*client.ServerInfo, error) {
	return c.mcp.Initialize(ctx)
}

// Close closes the underlying transport.
func (c *MCPClient) Close() error {
	return c.mcp.Close()
}

// call invokes a tool with retry. Tool errors are returned without retrying.
func (c *MCPClient) call(ctx context.Context, tool string, args map[string]any) (*client.ToolResult, error) {
	r := retry.New[*client.ToolResult](c.retryCfg)
	result, err := r.Do(ctx, func(ctx context.Context) (*client.ToolResult, error) {
		return c.mcp.CallTool(ctx, tool, args)
	})
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", tool, err)
	}
	if result.IsError {
		msg := ""
		if len(result.Content) > 0 {
			msg = result.Content[0].Text
		}
		return nil, &tracker.ToolError{Tool: tool, Message: msg}
	}
	return result, nil
}

// callInto invokes a tool and decodes its JSON text result into T.
func callInto[T any](ctx context.Context, c *MCPClient, tool string, args map[string]any) (*T, error) {
	res, err := c.call(ctx, tool, args)
	if err != nil {
		return nil, err
	}
	if len(res.Content) == 0 {
		return nil, ErrNoContent
	}
	var v T
	if err := json.Unmarshal([]byte(res.Content[0].Text), &v); err != nil {
		return nil, fmt.Errorf("%s: unmarshal: %w", tool, err)
	}
	return &v, nil
}

// toArgs turns a JSON-tagged input struct into tool arguments.
func toArgs(in any) (map[string]any, error) {
	b, err := json.Marshal(in)
	if err != nil {
		return nil, err
	}
	var args map[string]any
	if err := json.Unmarshal(b, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func (c *MCPClient) CreateEpic(ctx context.Context, in tracker.CreateEpicInput) (*tracker.Epic, error) {
	args, err := toArgs(in)
	if err != nil {
		return nil, err
	}
	return callInto[tracker.Epic](ctx, c, ToolCreateEpic, args)
}

func (c *MCPClient) CreateFeature(ctx context.Context, in tracker.CreateFeatureInput) (*tracker.Feature, error) {
	args, err := toArgs(in)
	if err != nil {
		return nil, err
	}
	return callInto[tracker.Feature](ctx, c, ToolCreateFeature, args)
}

func (c *MCPClient) UpdateFeature(ctx context.Context, id string, in tracker.UpdateFeatureInput) (*tracker.Feature, error) {
	return callInto[tracker.Feature](ctx, c, ToolUpdateFeature, map[string]any{
		"id":          id,
		"description": in.Description,
	})
}

func (c *MCPClient) CreateTask(ctx context.Context, in tracker.CreateTaskInput) (*tracker.Task, error) {
	args, err := toArgs(in)
	if err != nil {
		return nil, err
	}
	return callInto[tracker.Task](ctx, c, ToolCreateTask, args)
}

func (c *MCPClient) SetStructuredDescription(ctx context.Context, kind tracker.Kind, id string, desc tracker.StructuredDescription) error {
	descriptor, err := toArgs(desc)
	if err != nil {
		return err
	}
	_, err = c.call(ctx, ToolSetStructuredDescription, map[string]any{
		"type":        string(kind),
		"id":          id,
		"description": descriptor,
	})
	return err
}

func (c *MCPClient) AddValidation(ctx context.Context, taskID string, v tracker.Validation) error {
	args, err := toArgs(v)
	if err != nil {
		return err
	}
	args["taskId"] = taskID
	_, err = c.call(ctx, ToolAddValidation, args)
	return err
}

func (c *MCPClient) PreviewTemplate(ctx context.Context, name, epicName string) (*tracker.TemplatePreview, error) {
	return callInto[tracker.TemplatePreview](ctx, c, ToolPreviewTemplate, map[string]any{
		"templateName": name,
		"epicName":     epicName,
	})
}

func (c *MCPClient) CreateFromTemplate(ctx context.Context, name, epicName, teamID string, opts tracker.TemplateOptions) (*tracker.TemplateResult, error) {
	args := map[string]any{
		"templateName": name,
		"epicName":     epicName,
		"team":         teamID,
	}
	if opts.EpicDescription != "" {
		args["epicDescription"] = opts.EpicDescription
	}
	return callInto[tracker.TemplateResult](ctx, c, ToolCreateFromTemplate, args)
}
