package pipeline

import (
	"context"

	"prensa-go/internal/model"
)

type Notifier interface {
	Name() string
	Notify(ctx context.Context, entry model.Entry) error
}
