// Package pool implements the Bounded Worker Pool (C2): a fixed number of
// worker goroutines draining a bounded FIFO of envelopes, an admission
// throttle capping total in-flight requests, and soft/hard watchdog
// timeouts per request. Grounded on rgw_main.cc's RGWProcess/RGWWQ/Throttle
// and the fixed-size-threadpool-plus-workqueue shape it implements.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package pool

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/metrics"
	"github.com/NVIDIA/rgwcore/rgwlog"
)

// Task is one unit of pooled work: process the envelope and report when
// done.
type Task struct {
	Env     *envelope.Envelope
	Execute func(*envelope.Envelope) error
}

// Pool is a fixed-size worker pool with an FIFO admission queue and a
// semaphore-backed throttle capping total concurrent in-flight work at
// 2x the worker count - mirrors RGWProcess's thread pool size vs its
// configured max-request-concurrency.
type Pool struct {
	workers     int
	softTimeout time.Duration
	hardTimeout time.Duration

	queue chan Task
	sem   *semaphore.Weighted

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New creates a Pool with the given number of worker goroutines, an
// admission queue of depth queueDepth, and soft/hard per-task watchdog
// timeouts. The admission semaphore allows 2*workers concurrent in-flight
// tasks to throttle bursts ahead of the queue.
func New(workers, queueDepth int, softTimeout, hardTimeout time.Duration) *Pool {
	p := &Pool{
		workers:     workers,
		softTimeout: softTimeout,
		hardTimeout: hardTimeout,
		queue:       make(chan Task, queueDepth),
		sem:         semaphore.NewWeighted(int64(2 * workers)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx)
	}
	return p
}

// Submit enqueues task, blocking if the admission queue is full -
// mirrors RGWWQ's bounded queue backpressure.
func (p *Pool) Submit(ctx context.Context, t Task) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	metrics.QueueLen.Inc()
	select {
	case p.queue <- t:
		return nil
	case <-ctx.Done():
		p.sem.Release(1)
		metrics.QueueLen.Dec()
		return ctx.Err()
	}
}

func (p *Pool) runWorker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-p.queue:
			if !ok {
				return
			}
			metrics.QueueLen.Dec()
			p.runTask(t)
			p.sem.Release(1)
		}
	}
}

// runTask executes one task under the soft/hard watchdog: a soft-timeout
// log warning fires first (mirrors godown_alarm's early-warning role),
// followed by a hard-timeout forced abandonment of waiting for the
// task - the goroutine itself is not killed (Go has no safe thread-kill),
// but the worker stops waiting on it and moves on to the next task,
// logging the stuck task at ERR.
func (p *Pool) runTask(t Task) {
	metrics.QueueActive.Inc()
	defer metrics.QueueActive.Dec()

	done := make(chan struct{})
	var err error
	go func() {
		defer close(done)
		err = t.Execute(t.Env)
	}()

	soft := time.NewTimer(p.softTimeout)
	hard := time.NewTimer(p.hardTimeout)
	defer soft.Stop()
	defer hard.Stop()

	for {
		select {
		case <-done:
			if err != nil {
				t.Env.Abort(err)
			}
			return
		case <-soft.C:
			rgwlog.Warnf("request %d exceeded soft timeout %s, still running", t.Env.ID, p.softTimeout)
		case <-hard.C:
			rgwlog.Errorf("request %d exceeded hard timeout %s, abandoning wait", t.Env.ID, p.hardTimeout)
			return
		}
	}
}

// Shutdown stops accepting new work and waits for in-flight workers to
// drain, mirroring godown_handler's graceful-stop role.
func (p *Pool) Shutdown() {
	close(p.queue)
	p.wg.Wait()
	p.cancel()
}
