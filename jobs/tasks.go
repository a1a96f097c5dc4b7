package jobs

import (
	"context"

	"github.com/hibiken/asynq"

	"github.com/quotemill/quotemill/internal/quotes"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
)

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	client := asynq.NewClient(redisOpts)
	return &Client{client: client}, nil
}

// EnqueueExport queues a background render-and-store of a quotation document.
func (c *Client) EnqueueExport(ctx context.Context, reference string) error {
	task, err := quotes.NewExportTask(reference)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
