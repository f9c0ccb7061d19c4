// File: controlplane.go
// Title: Control-Plane Event Loop
// Description: Single goroutine that runs every tree access in FIFO order.
//              The queue is unbounded so submitters never block.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-19
// Modified: 2026-10-19
//
// Change History:
// - 2026-10-19 v0.1.0: Initial implementation

package executor

import (
	"context"
	"fmt"
	"sync"

	mdwerror "github.com/msto63/netplane/foundation/core/error"
	mdwlog "github.com/msto63/netplane/foundation/core/log"
)

// ControlPlane owns the goroutine on which the resource tree lives
type ControlPlane struct {
	mutex  sync.Mutex
	queue  []func(ctx context.Context)
	notify chan struct{}
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	logger *mdwlog.Logger
}

// NewControlPlane starts the loop goroutine
func NewControlPlane(logger *mdwlog.Logger) *ControlPlane {
	if logger == nil {
		logger = mdwlog.GetDefault()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cp := &ControlPlane{
		notify: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		logger: logger.WithField("component", "control-plane"),
	}
	go cp.loop()
	cp.logger.Debug("control plane started")
	return cp
}

// Post enqueues fn. It fails only after Close.
func (cp *ControlPlane) Post(fn func(ctx context.Context)) error {
	cp.mutex.Lock()
	if cp.closed {
		cp.mutex.Unlock()
		return mdwerror.New("control plane is closed").WithCode(mdwerror.CodeServiceUnavailable)
	}
	cp.queue = append(cp.queue, fn)
	cp.mutex.Unlock()

	select {
	case cp.notify <- struct{}{}:
	default:
	}
	return nil
}

// Pending returns the number of queued tasks not yet started
func (cp *ControlPlane) Pending() int {
	cp.mutex.Lock()
	defer cp.mutex.Unlock()
	return len(cp.queue)
}

// Close stops accepting tasks, runs everything already queued and waits
// for the loop to exit. Calling it twice is harmless.
func (cp *ControlPlane) Close() {
	cp.mutex.Lock()
	already := cp.closed
	cp.closed = true
	cp.mutex.Unlock()

	if !already {
		select {
		case cp.notify <- struct{}{}:
		default:
		}
	}
	<-cp.done
}

func (cp *ControlPlane) loop() {
	defer close(cp.done)
	defer cp.cancel()

	for {
		cp.mutex.Lock()
		batch := cp.queue
		cp.queue = nil
		closed := cp.closed
		cp.mutex.Unlock()

		for _, fn := range batch {
			cp.run(fn)
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			cp.logger.Debug("control plane stopped")
			return
		}
		<-cp.notify
	}
}

func (cp *ControlPlane) run(fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			cp.logger.Error("task panicked", mdwlog.Fields{"panic": fmt.Sprint(r)})
		}
	}()
	fn(cp.ctx)
}
