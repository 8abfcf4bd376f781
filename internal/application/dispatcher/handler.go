package dispatcher

import (
	"context"

	"github.com/keystonepm/approvalflow/internal/domain/event"
)

// Handler runs one side-effect task for a domain event.
type Handler func(ctx context.Context, evt *event.Event) error

// HandlerInfo contains handler metadata for logging.
type HandlerInfo struct {
	Name      string
	EventType event.Type
	Handler   Handler
}
