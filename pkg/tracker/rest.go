package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/spectree/pkg/domain/tracker"
)

// RESTClient talks to the tracker's JSON API under /api/v1.
type RESTClient struct {
	baseURL  string
	token    string
	http     *http.Client
	retryCfg retry.Config
}

var _ tracker.Client = (*RESTClient)(nil)

// NewRESTClient creates a client for the tracker at baseURL.
func NewRESTClient(baseURL string, opts ...Option) *RESTClient {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	hc := o.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: o.timeout}
	}
	return &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		token:   o.token,
		http:    hc,
		retryCfg: retry.Config{
			MaxAttempts:   o.maxAttempts,
			InitialDelay:  o.initialDelay,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// do sends one request, retrying transport errors and temporary API errors.
// out may be nil when the response body is not needed.
func (c *RESTClient) do(ctx context.Context, op, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	var permanent error
	r := retry.New[json.RawMessage](c.retryCfg)
	data, err := r.Do(ctx, func(ctx context.Context) (json.RawMessage, error) {
		data, err := c.send(ctx, op, method, path, payload)
		if err != nil && !retryable(err) {
			permanent = err
			return nil, nil
		}
		return data, err
	})
	if permanent != nil {
		return permanent
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *RESTClient) send(ctx context.Context, op, method, path string, payload []byte) (json.RawMessage, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close on read body

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, &tracker.APIError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response body"}
		}
	}

	if resp.StatusCode >= 300 {
		msg := http.StatusText(resp.StatusCode)
		if env.Error != nil && env.Error.Message != "" {
			msg = env.Error.Message
		}
		return nil, &tracker.APIError{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}
	return env.Data, nil
}

func retryable(err error) bool {
	var apiErr *tracker.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}

func (c *RESTClient) CreateEpic(ctx context.Context, in tracker.CreateEpicInput) (*tracker.Epic, error) {
	var epic tracker.Epic
	if err := c.do(ctx, "create epic", http.MethodPost, "/epics", in, &epic); err != nil {
		return nil, err
	}
	return &epic, nil
}

func (c *RESTClient) CreateFeature(ctx context.Context, in tracker.CreateFeatureInput) (*tracker.Feature, error) {
	var f tracker.Feature
	if err := c.do(ctx, "create feature", http.MethodPost, "/features", in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *RESTClient) UpdateFeature(ctx context.Context, id string, in tracker.UpdateFeatureInput) (*tracker.Feature, error) {
	var f tracker.Feature
	if err := c.do(ctx, "update feature", http.MethodPatch, "/features/"+url.PathEscape(id), in, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *RESTClient) CreateTask(ctx context.Context, in tracker.CreateTaskInput) (*tracker.Task, error) {
	var task tracker.Task
	if err := c.do(ctx, "create task", http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *RESTClient) SetStructuredDescription(ctx context.Context, kind tracker.Kind, id string, desc tracker.StructuredDescription) error {
	path := fmt.Sprintf("/%ss/%s/structured-description", kind, url.PathEscape(id))
	return c.do(ctx, "set structured description", http.MethodPut, path, desc, nil)
}

func (c *RESTClient) AddValidation(ctx context.Context, taskID string, v tracker.Validation) error {
	return c.do(ctx, "add validation", http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/validations", v, nil)
}

func (c *RESTClient) PreviewTemplate(ctx context.Context, name, epicName string) (*tracker.TemplatePreview, error) {
	var p tracker.TemplatePreview
	body := map[string]string{"epicName": epicName}
	if err := c.do(ctx, "preview template", http.MethodPost, "/templates/"+url.PathEscape(name)+"/preview", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *RESTClient) CreateFromTemplate(ctx context.Context, name, epicName, teamID string, opts tracker.TemplateOptions) (*tracker.TemplateResult, error) {
	var res tracker.TemplateResult
	body := map[string]string{"epicName": epicName, "teamId": teamID}
	if opts.EpicDescription != "" {
		body["epicDescription"] = opts.EpicDescription
	}
	if err := c.do(ctx, "create from template", http.MethodPost, "/templates/"+url.PathEscape(name)+"/instantiate", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
