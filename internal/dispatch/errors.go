package dispatch

import (
	"context"
	"errors"
	"strings"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// translateCDPError converts chromedp/cdproto error text into the daemon's
// semantic errors. Raw protocol messages never leak past the dispatcher.
func translateCDPError(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{
		models.ErrTimeout, models.ErrMultipleMatches, models.ErrDetachedElement,
		models.ErrTabNotFound, models.ErrUnknownRef,
	} {
		if errors.Is(err, known) {
			return err
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case errors.Is(err, context.DeadlineExceeded) || strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return models.ErrTimeout
	case strings.Contains(msg, "detached") || strings.Contains(msg, "node with given id does not belong"):
		return models.ErrDetachedElement
	case strings.Contains(msg, "no target") || strings.Contains(msg, "target closed") ||
		strings.Contains(msg, "session closed") || strings.Contains(msg, "target not found"):
		return models.ErrTabNotFound
	case strings.Contains(msg, "could not find node") || strings.Contains(msg, "node does not exist"):
		return models.ErrTimeout
	}
	return err
}
