package chi

import (
	"context"

	"github.com/kailas-cloud/shopchat/internal/usecase/chat"
	"github.com/kailas-cloud/shopchat/internal/usecase/health"
)

// ChatService answers chat messages.
type ChatService interface {
	Chat(ctx context.Context, req chat.Request) (chat.Response, error)
}

// HealthService aggregates component health.
type HealthService interface {
	Check(ctx context.Context) health.Report
}
