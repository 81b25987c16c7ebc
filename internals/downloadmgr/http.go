package downloadmgr

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/dchest/uniuri"
)

// TaskState is the lifecycle state of one queued item
type TaskState uint8

const (
	// StatePending means the item was not picked up yet
	StatePending TaskState = iota
	// StateInFlight means a transfer is running
	StateInFlight
	// StateVerified means the file is on disk and its checksum matched
	StateVerified
	// StateSkipped means a verified file was already present
	StateSkipped
	// StateFailed means the item used up all retries
	StateFailed
)

func (s TaskState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in-flight"
	case StateVerified:
		return "verified"
	case StateSkipped:
		return "skipped"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// HTTPItem is a URL, target pair with optional properties that will be
// downloaded using http(s)
type HTTPItem struct {
	URL    string
	Target string
	// Size in bytes (0 = unknown)
	Size int
	// Sha1 is the expected content hash. Verification is skipped
	// when it is empty.
	Sha1 string

	mu    sync.Mutex
	state TaskState
	err   error
}

// NewHTTPItem creates an item to be queued that will download the file using HTTP(S)
func NewHTTPItem(url string, target string) *HTTPItem {
	if url == "" {
		panic("download URL can not be empty")
	}
	if target == "" {
		panic("download target can not be empty")
	}
	return &HTTPItem{URL: url, Target: target}
}

// State returns the current lifecycle state
func (i *HTTPItem) State() TaskState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Err returns the error the item last failed with
func (i *HTTPItem) Err() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.err
}

// MarkSkipped marks an already present & verified file as satisfied
func (i *HTTPItem) MarkSkipped() {
	i.setState(StateSkipped, nil)
}

func (i *HTTPItem) setState(s TaskState, err error) {
	i.mu.Lock()
	i.state = s
	i.err = err
	i.mu.Unlock()
}

func (i *HTTPItem) fail(err error) {
	i.setState(StateFailed, err)
}

// download streams the remote content to a temporary file next to the
// target, hashing while writing. Only verified content is moved to the
// final path, so readers never observe partial files there.
func (i *HTTPItem) download(ctx context.Context, client *http.Client, onProgress func(ProgressEvent)) error {
	i.setState(StateInFlight, nil)

	if err := os.MkdirAll(filepath.Dir(i.Target), os.ModePerm); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.URL, nil)
	if err != nil {
		return err
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("error while fetching %s: %w", i.URL, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return &ErrUnexpectedStatus{URL: i.URL, StatusCode: res.StatusCode, Status: res.Status}
	}

	tmpPath := i.Target + ".tmp-" + uniuri.NewLen(8)
	tmp, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	hasher := sha1.New()
	writer := io.Writer(tmp)
	if i.Sha1 != "" {
		writer = io.MultiWriter(tmp, hasher)
	}
	if onProgress != nil {
		writer = io.MultiWriter(writer, &progressWriter{item: i, onProgress: onProgress})
	}

	if _, err := io.Copy(writer, res.Body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("error while streaming %s: %w", i.URL, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if i.Sha1 != "" {
		actual := fmt.Sprintf("%x", hasher.Sum(nil))
		if actual != i.Sha1 {
			os.Remove(tmpPath)
			return &ErrInvalidSha{FileName: i.Target, ExpectedSha: i.Sha1, ActualSha: actual}
		}
	}

	if err := os.Rename(tmpPath, i.Target); err != nil {
		os.Remove(tmpPath)
		return err
	}

	i.setState(StateVerified, nil)
	return nil
}

type progressWriter struct {
	item       *HTTPItem
	onProgress func(ProgressEvent)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.onProgress(ProgressEvent{Item: p.item, Bytes: int64(len(b))})
	return len(b), nil
}

// ErrUnexpectedStatus is returned when the server answers with a non 200 status
type ErrUnexpectedStatus struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *ErrUnexpectedStatus) Error() string {
	return fmt.Sprintf("invalid status code: %s from %s", e.Status, e.URL)
}

// ErrInvalidSha is returned when the downloaded file's sha1 sum does not
// match the expected one
type ErrInvalidSha struct {
	FileName    string
	ExpectedSha string
	ActualSha   string
}

func (e *ErrInvalidSha) Error() string {
	return fmt.Sprintf(
		"file corrupted: %s sha1 is invalid.\n\texpected to be \"%s\"\n\tbut actually is \"%s\"",
		e.FileName,
		e.ExpectedSha,
		e.ActualSha,
	)
}

// isTransient reports whether retrying the item could help.
// Connection level errors, server side statuses and checksum mismatches
// are worth a retry, client errors (404, 403, …) are not.
func isTransient(err error) bool {
	var shaErr *ErrInvalidSha
	if errors.As(err, &shaErr) {
		return true
	}

	var statusErr *ErrUnexpectedStatus
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500 ||
			statusErr.StatusCode == http.StatusTooManyRequests ||
			statusErr.StatusCode == http.StatusRequestTimeout
	}

	// "connection reset by peer", timeouts and friends
	var netErr net.Error
	return errors.As(err, &netErr)
}

// VerifyFile reports whether the file at path exists and matches the
// given sha1 hex digest. Used to skip already installed files.
func VerifyFile(path string, sha string) bool {
	src, err := os.Open(path)
	if err != nil {
		return false
	}
	defer src.Close()

	hasher := sha1.New()
	if _, err := io.Copy(hasher, src); err != nil {
		return false
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)) == sha
}
