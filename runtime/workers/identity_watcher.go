package workers

import (
	"context"
	"log/slog"

	"secure-messenger/contract"
)

var _ contract.Worker = (*IdentityWatcher)(nil)

// IdentityWatcher forwards every identity change to a handler, on its own goroutine, until ctx is done.
type IdentityWatcher struct {
	log      *slog.Logger
	provider contract.IdentityProvider
	onChange func(ctx context.Context, change contract.IdentityChange)
}

func NewIdentityWatcher(log *slog.Logger, provider contract.IdentityProvider,
	onChange func(ctx context.Context, change contract.IdentityChange)) *IdentityWatcher {
	return &IdentityWatcher{log: log, provider: provider, onChange: onChange}
}

func (w *IdentityWatcher) Run(ctx context.Context) error {
	changes := w.provider.Watch(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			w.log.Debug("Identity changed", "signed_in", change.SignedIn)
			w.onChange(ctx, change)
		}
	}
}
