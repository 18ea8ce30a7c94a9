// Package search implements the search collaborator on Meilisearch.
// Both operations are idempotent: documents are keyed by a stable id, and
// deleting an absent id succeeds. A write returns only once the engine has
// applied its task, so callers may act on the result.
package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/meilisearch/meilisearch-go"

	"github.com/heartmarshall/writing/internal/config"
	"github.com/heartmarshall/writing/internal/domain"
)

const (
	primaryKey = "id"

	defaultTaskPoll    = 50 * time.Millisecond
	defaultTaskTimeout = 30 * time.Second
)

// Client writes publication documents to one Meilisearch index.
type Client struct {
	client      *meilisearch.Client
	index       *meilisearch.Index
	taskPoll    time.Duration
	taskTimeout time.Duration
}

// New creates a client for cfg.Index.
func New(cfg config.SearchConfig) *Client {
	c := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:    cfg.URL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})
	cl := &Client{
		client:      c,
		index:       c.Index(cfg.Index),
		taskPoll:    cfg.TaskPoll,
		taskTimeout: cfg.TaskTimeout,
	}
	if cl.taskPoll <= 0 {
		cl.taskPoll = defaultTaskPoll
	}
	if cl.taskTimeout <= 0 {
		cl.taskTimeout = defaultTaskTimeout
	}
	return cl
}

// Upsert adds or replaces documents by id.
func (c *Client) Upsert(ctx context.Context, docs []domain.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := c.index.AddDocuments(docs, primaryKey)
	if err != nil {
		return classify("upsert documents", err)
	}
	return c.wait(ctx, "upsert documents", info)
}

// Delete removes documents by id.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := c.index.DeleteDocuments(ids)
	if err != nil {
		return classify("delete documents", err)
	}
	return c.wait(ctx, "delete documents", info)
}

// wait polls the task until the engine finishes it. A task that fails, is
// canceled or does not finish within taskTimeout leaves the write undone and
// is reported as unavailable, so the caller retries the whole batch.
func (c *Client) wait(ctx context.Context, op string, info *meilisearch.TaskInfo) error {
	wctx, cancel := context.WithTimeout(ctx, c.taskTimeout)
	defer cancel()

	task, err := c.index.WaitForTask(info.TaskUID, meilisearch.WaitParams{Context: wctx, Interval: c.taskPoll})
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s: task %d: %w", op, info.TaskUID, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%s: task %d not finished after %s: %w", op, info.TaskUID, c.taskTimeout, domain.ErrDependencyUnavailable)
		}
		return classify(fmt.Sprintf("%s: task %d", op, info.TaskUID), err)
	}

	switch task.Status {
	case meilisearch.TaskStatusSucceeded:
		return nil
	case meilisearch.TaskStatusFailed:
		return fmt.Errorf("%s: task %d failed: %s (%s): %w",
			op, info.TaskUID, task.Error.Message, task.Error.Code, domain.ErrDependencyUnavailable)
	default:
		return fmt.Errorf("%s: task %d ended %s: %w", op, info.TaskUID, task.Status, domain.ErrDependencyUnavailable)
	}
}

// Ping checks that the engine reports itself available.
func (c *Client) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h, err := c.client.Health()
	if err != nil {
		return classify("health", err)
	}
	if h.Status != "available" {
		return fmt.Errorf("health: status %q: %w", h.Status, domain.ErrDependencyUnavailable)
	}
	return nil
}

// classify marks transport failures, throttling and server errors as
// unavailable so the caller can defer and retry. Other rejections (bad
// request, auth) are returned as they are.
func classify(op string, err error) error {
	var merr *meilisearch.Error
	if errors.As(err, &merr) {
		if merr.StatusCode == 0 || merr.StatusCode == 429 || merr.StatusCode >= 500 {
			return fmt.Errorf("%s: %w: %w", op, domain.ErrDependencyUnavailable, err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return fmt.Errorf("%s: %w: %w", op, domain.ErrDependencyUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
