package downloadmgr

import (
	"context"
	"net/http"
	"sync"
)

// DefaultConcurrency is the number of parallel transfers a manager
// runs unless configured otherwise
const DefaultConcurrency = 16

// DefaultRetries is how often a transiently failing item is re-queued
// before it counts as failed
const DefaultRetries = 3

// ProgressEvent is emitted while the queue is running. It is a reporting
// side channel only and never influences the batch outcome.
type ProgressEvent struct {
	Item *HTTPItem
	// Bytes transferred since the previous event for this item
	Bytes int64
	// Done is set once when the item reaches a terminal state
	Done bool
}

// DownloadManager downloads a queue of items with bounded concurrency,
// verifying every file it writes
type DownloadManager struct {
	queue       []*HTTPItem
	client      *http.Client
	Concurrency int
	Retries     int
	OnProgress  func(ProgressEvent)
}

// New creates a new DownloadManager using the given http client
func New(client *http.Client) *DownloadManager {
	if client == nil {
		client = http.DefaultClient
	}
	return &DownloadManager{
		client:      client,
		Concurrency: DefaultConcurrency,
		Retries:     DefaultRetries,
	}
}

// Add adds a new item to the queue
func (d *DownloadManager) Add(i *HTTPItem) {
	d.queue = append(d.queue, i)
}

// Len returns the number of queued items
func (d *DownloadManager) Len() int {
	return len(d.queue)
}

// Start downloads the whole queue. Individual item failures do not stop
// sibling transfers. It returns an *ErrIncompleteInstallation naming every
// item that exhausted its retries, or the context error on cancellation.
func (d *DownloadManager) Start(ctx context.Context) error {
	if len(d.queue) == 0 {
		return nil
	}

	concurrency := d.Concurrency
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, item := range d.queue {
		if ctx.Err() != nil {
			break
		}
		if item.State() == StateSkipped {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(item *HTTPItem) {
			defer wg.Done()
			defer func() { <-sem }()
			d.runItem(ctx, item)
		}(item)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	failed := make([]*HTTPItem, 0)
	for _, item := range d.queue {
		if item.State() == StateFailed {
			failed = append(failed, item)
		}
	}
	if len(failed) != 0 {
		return &ErrIncompleteInstallation{Failed: failed}
	}
	return nil
}

// runItem downloads one item, re-queueing it locally on transient errors
// until the retry budget is used up
func (d *DownloadManager) runItem(ctx context.Context, item *HTTPItem) {
	retries := d.Retries
	if retries < 0 {
		retries = 0
	}

	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		err = item.download(ctx, d.client, d.OnProgress)
		if err == nil {
			d.emitDone(item)
			return
		}
		if ctx.Err() != nil || !isTransient(err) {
			break
		}
	}

	item.fail(err)
	d.emitDone(item)
}

func (d *DownloadManager) emitDone(item *HTTPItem) {
	if d.OnProgress != nil {
		d.OnProgress(ProgressEvent{Item: item, Done: true})
	}
}
