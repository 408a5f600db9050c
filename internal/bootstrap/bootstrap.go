// Package bootstrap fetches the selectable datasets once per workflow mount.
package bootstrap

import (
	"context"
	"sync"

	"github.com/Iron-Ham/teehrview/internal/errors"
	"github.com/Iron-Ham/teehrview/internal/loader"
	"github.com/Iron-Ham/teehrview/internal/logging"
	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/teehr"
)

// Outcome is the result of the dataset listing.
type Outcome = loader.Outcome[[]teehr.Dataset]

// Bootstrapper issues exactly one dataset-listing call and records its
// lifecycle on a loader.
type Bootstrapper struct {
	lister teehr.DatasetLister
	loader *loader.Loader[[]teehr.Dataset]
	logger *logging.Logger

	once sync.Once
}

// New creates a Bootstrapper. A nil loader gets a fresh one named
// "datasets".
func New(lister teehr.DatasetLister, l *loader.Loader[[]teehr.Dataset], logger *logging.Logger) *Bootstrapper {
	if logger == nil {
		logger = logging.NopLogger()
	}
	if l == nil {
		l = loader.New[[]teehr.Dataset]("datasets", logger)
	}
	return &Bootstrapper{
		lister: lister,
		loader: l,
		logger: logger.WithComponent("bootstrap"),
	}
}

// Loader returns the loader tracking the listing call.
func (b *Bootstrapper) Loader() *loader.Loader[[]teehr.Dataset] {
	return b.loader
}

// Start begins the listing call and returns the channel its outcome will be
// delivered on. Only the first call does anything; later calls return nil.
func (b *Bootstrapper) Start(ctx context.Context) <-chan Outcome {
	var ch <-chan Outcome
	b.once.Do(func() {
		var err error
		ch, err = b.loader.Start(ctx, b.lister.ListDatasets)
		if err != nil {
			b.logger.Warn("dataset bootstrap not started", "error", err.Error())
			ch = nil
			return
		}
		b.logger.Info("dataset bootstrap started")
	})
	return ch
}

// Apply settles the loader with outcome and writes the datasets into sess.
// Call it on the loop that owns sess: the loader leaves pending only here,
// after the datasets are in place. A failure is returned as a
// *errors.BootstrapError and leaves sess untouched. Outcomes arriving after
// sess was disposed settle the loader but write nothing, and a second
// outcome is dropped.
func (b *Bootstrapper) Apply(sess *session.Context, outcome Outcome) error {
	if b.loader.Status() != loader.StatusPending {
		b.logger.Debug("dropping bootstrap outcome", "status", string(b.loader.Status()))
		return nil
	}
	if sess == nil || sess.Disposed() {
		b.settle(outcome)
		b.logger.Debug("dropping bootstrap outcome for disposed session")
		return nil
	}
	if outcome.Err != nil {
		b.settle(outcome)
		b.logger.Error("dataset bootstrap failed", "error", outcome.Err.Error())
		return errors.NewBootstrapError(outcome.Err)
	}
	sess.SetDatasets(outcome.Value)
	b.settle(outcome)
	b.logger.Info("dataset bootstrap complete", "datasets", len(outcome.Value))
	return nil
}

func (b *Bootstrapper) settle(outcome Outcome) {
	if err := b.loader.Settle(outcome); err != nil {
		b.logger.Warn("dataset loader not settled", "error", err.Error())
	}
}
