// Package tracing posts run records to a LangSmith-compatible tracing
// endpoint. Tracing is observability only: every failure is logged and
// swallowed, and an unconfigured tracer is a valid nil value whose
// methods all no-op.
package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const defaultEndpoint = "https://api.smith.langchain.com"

// Tracer tags enrichment runs with a name and metadata. The zero value
// is not usable; construct with New. A nil *Tracer is disabled.
type Tracer struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	project    string
	logger     *slog.Logger
}

// Run is an in-flight trace started by StartRun.
type Run struct {
	ID        uuid.UUID
	Name      string
	startedAt time.Time
}

// New returns a Tracer when an API key is configured, nil otherwise.
func New(apiKey, project, endpoint string, logger *slog.Logger) *Tracer {
	if apiKey == "" {
		return nil
	}
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Tracer{
		httpClient: http.DefaultClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		project:    project,
		logger:     logger,
	}
}

// Enabled reports whether runs will be traced.
func (t *Tracer) Enabled() bool { return t != nil }

// StartRun registers a new run with the tracing backend and returns a
// handle for EndRun. Returns nil when the tracer is disabled or the
// backend rejects the run; a nil Run is safe to pass to EndRun.
func (t *Tracer) StartRun(ctx context.Context, name string, metadata map[string]string) *Run {
	if t == nil {
		return nil
	}
	run := &Run{ID: uuid.New(), Name: name, startedAt: time.Now().UTC()}
	payload := map[string]any{
		"id":           run.ID.String(),
		"name":         name,
		"run_type":     "chain",
		"start_time":   run.startedAt.Format(time.RFC3339Nano),
		"session_name": t.project,
		"extra":        map[string]any{"metadata": metadata},
	}
	if err := t.post(ctx, http.MethodPost, "/runs", payload); err != nil {
		t.logger.Warn("failed to start trace run", "run", name, "error", err)
		return nil
	}
	return run
}

// EndRun closes a run, recording the error message if the run failed.
func (t *Tracer) EndRun(ctx context.Context, run *Run, runErr error) {
	if t == nil || run == nil {
		return
	}
	payload := map[string]any{
		"end_time": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if runErr != nil {
		payload["error"] = runErr.Error()
	}
	if err := t.post(ctx, http.MethodPatch, "/runs/"+run.ID.String(), payload); err != nil {
		t.logger.Warn("failed to end trace run", "run", run.Name, "error", err)
	}
}

func (t *Tracer) post(ctx context.Context, method, path string, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, t.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", t.apiKey)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return nil
}
