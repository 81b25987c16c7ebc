package downloadmgr

import (
	"fmt"
	"strings"
)

// ErrIncompleteInstallation is the batch outcome when one or more items
// stayed failed after exhausting their retries. Verified sibling items
// are kept on disk, so re-running the batch only fetches what is listed
// here.
type ErrIncompleteInstallation struct {
	Failed []*HTTPItem
}

func (e *ErrIncompleteInstallation) Error() string {
	lines := make([]string, 0, len(e.Failed)+1)
	lines = append(lines, fmt.Sprintf("%d file(s) could not be downloaded:", len(e.Failed)))
	for _, item := range e.Failed {
		reason := "unknown error"
		if err := item.Err(); err != nil {
			reason = err.Error()
		}
		lines = append(lines, fmt.Sprintf("  %s: %s", item.Target, reason))
	}
	return strings.Join(lines, "\n")
}
