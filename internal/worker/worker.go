package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	threadpkg "github.com/danshi-org/client/internal/thread"
)

// Refresher reloads a post's comment thread on a fixed interval. It backs
// the watch command, where no user interaction drives reloads.
type Refresher struct {
	context   context.Context
	cancel    func()
	waitGroup sync.WaitGroup
	logger    *zap.Logger
	store     *threadpkg.Store
	interval  time.Duration
	onReload  func()
}

// NewRefresher creates a refresher for the given store. onReload is called
// after every successful reload and may be nil.
func NewRefresher(logger *zap.Logger, store *threadpkg.Store, interval time.Duration, onReload func()) *Refresher {
	context, cancel := context.WithCancel(context.Background())
	this := &Refresher{
		context:  context,
		cancel:   cancel,
		logger:   logger,
		store:    store,
		interval: interval,
		onReload: onReload,
	}
	return this
}

func (this *Refresher) Start() error {
	this.logger.Info("starting thread refresher",
		zap.String("post_id", this.store.PostID()),
		zap.Duration("interval", this.interval),
	)

	this.waitGroup.Add(1)
	go this.worker()
	return nil
}

func (this *Refresher) Stop() error {
	this.logger.Info("stopping thread refresher")

	this.cancel()
	this.waitGroup.Wait()
	return nil
}

func (this *Refresher) worker() {
	defer this.waitGroup.Done()

	ticker := time.NewTicker(this.interval)
	defer ticker.Stop()

	for {
		select {
		case <-this.context.Done():
			return
		case <-ticker.C:
		}

		err := this.store.Load(this.context)
		if err != nil {
			this.logger.Error("error refreshing thread", zap.Error(err))
			continue
		}

		if this.onReload != nil {
			this.onReload()
		}
	}
}
