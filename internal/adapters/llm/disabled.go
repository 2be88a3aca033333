package llm

import (
	"context"
	"errors"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
	"github.com/0xcro3dile/pdfrag-go/internal/domain/ports"
)

var _ ports.Completer = DisabledCompleter{}

// DisabledCompleter is used when no provider is configured.
type DisabledCompleter struct {
	Reason string
}

func (d DisabledCompleter) Availability() entities.Availability {
	reason := d.Reason
	if reason == "" {
		reason = "no provider configured"
	}
	return entities.Unavailable(reason)
}

func (d DisabledCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "", errors.New("completion is disabled")
}
