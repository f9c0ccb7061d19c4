package audit

import (
	"context"
	"sync/atomic"
	"time"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
	"github.com/msto63/netplane/foundation/rcl/executor"
)

// RecorderConfig tunes the background writer
type RecorderConfig struct {
	// Buffer is the number of entries held while the writer is busy
	Buffer      int
	BatchSize   int
	FlushPeriod time.Duration
	// Retention prunes older entries once per PruneEvery; zero keeps all
	Retention  time.Duration
	PruneEvery time.Duration
}

// DefaultRecorderConfig returns default configuration
func DefaultRecorderConfig() RecorderConfig {
	return RecorderConfig{
		Buffer:      4096,
		BatchSize:   100,
		FlushPeriod: time.Second,
		PruneEvery:  time.Hour,
	}
}

// Recorder observes the executor and writes entries in batches off the
// control-plane goroutine
type Recorder struct {
	store   *SQLiteStore
	cfg     RecorderConfig
	entries chan *Entry
	dropped atomic.Int64
	logger  *mdwlog.Logger
}

// NewRecorder creates a recorder writing to store
func NewRecorder(store *SQLiteStore, cfg RecorderConfig, logger *mdwlog.Logger) *Recorder {
	def := DefaultRecorderConfig()
	if cfg.Buffer <= 0 {
		cfg.Buffer = def.Buffer
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushPeriod <= 0 {
		cfg.FlushPeriod = def.FlushPeriod
	}
	if cfg.PruneEvery <= 0 {
		cfg.PruneEvery = def.PruneEvery
	}
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	return &Recorder{
		store:   store,
		cfg:     cfg,
		entries: make(chan *Entry, cfg.Buffer),
		logger:  logger.WithField("component", "audit"),
	}
}

// EntryFromOutcome converts an executed command into an audit entry
func EntryFromOutcome(o executor.Outcome) *Entry {
	entry := &Entry{
		ID:        o.RequestID,
		Timestamp: o.Submitted,
		Source:    o.Source,
		Command:   o.Command,
		Action:    o.Action.String(),
		Type:      o.Type.String(),
		Status:    StatusOK,
		Duration:  o.Duration,
	}
	if o.Err != nil {
		entry.Status = StatusFailed
		entry.Code = string(mdwerror.GetCode(o.Err))
		entry.Message = o.Err.Error()
	}
	return entry
}

// CommandExecuted queues the outcome; it never blocks and drops the entry
// when the buffer is full
func (r *Recorder) CommandExecuted(o executor.Outcome) {
	select {
	case r.entries <- EntryFromOutcome(o):
	default:
		if r.dropped.Add(1) == 1 {
			r.logger.Warn("audit buffer full, dropping entries", mdwlog.Fields{"buffer": r.cfg.Buffer})
		}
	}
}

// Dropped returns how many entries were lost to a full buffer
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Run writes queued entries until ctx is done, then flushes what is left
func (r *Recorder) Run(ctx context.Context) error {
	flush := time.NewTicker(r.cfg.FlushPeriod)
	defer flush.Stop()
	prune := time.NewTicker(r.cfg.PruneEvery)
	defer prune.Stop()

	r.prune(ctx)

	batch := make([]*Entry, 0, r.cfg.BatchSize)
	write := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		accepted, rejected, err := r.store.RecordBatch(ctx, batch)
		if err != nil {
			r.logger.ErrorWithErr("failed to write audit batch", err, mdwlog.Fields{"entries": len(batch)})
		} else if rejected > 0 {
			r.logger.Warn("audit entries rejected", mdwlog.Fields{"accepted": accepted, "rejected": rejected})
		}
		batch = batch[:0]
	}

	for {
		select {
		case entry := <-r.entries:
			batch = append(batch, entry)
			if len(batch) >= r.cfg.BatchSize {
				write(ctx)
			}

		case <-flush.C:
			write(ctx)

		case <-prune.C:
			r.prune(ctx)

		case <-ctx.Done():
		drain:
			for {
				select {
				case entry := <-r.entries:
					batch = append(batch, entry)
				default:
					break drain
				}
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			write(shutdownCtx)
			cancel()
			return nil
		}
	}
}

func (r *Recorder) prune(ctx context.Context) {
	if r.cfg.Retention <= 0 {
		return
	}
	n, err := r.store.Prune(ctx, r.cfg.Retention)
	if err != nil {
		r.logger.ErrorWithErr("failed to prune audit entries", err)
		return
	}
	if n > 0 {
		r.logger.Info("audit entries pruned", mdwlog.Fields{"deleted": n})
	}
}

var _ executor.Observer = (*Recorder)(nil)
