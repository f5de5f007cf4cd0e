// Package reserve implements a generic async reservation queue: callers
// request a slot keyed by K, at most maxRunning keys are "in progress" at
// once, and the rest wait in FIFO order. Completion is delivered by
// callback on a dedicated drain goroutine, never inline under the lock.
//
// Two call sites in this module share this one primitive: GET-object
// request coalescing (key = bucket+"/"+object) and multipart part
// serialization (key = bucket+"/"+uploadID).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package reserve

import (
	"sync"

	"github.com/NVIDIA/rgwcore/rgwdebug"
)

// Reserver grants up to maxRunning concurrent reservations for keys of
// type K, queuing the rest in FIFO order until a slot frees up.
type Reserver[K comparable] struct {
	mu         sync.Mutex
	maxRunning int
	running    map[K]struct{}
	queued     map[K]struct{}
	order      []K
	pending    []func(K)
	ready      chan readyEntry[K]
	wg         sync.WaitGroup
	closed     bool
}

type readyEntry[K comparable] struct {
	key   K
	onRdy func(K)
}

// New creates a Reserver that allows at most maxRunning keys to be
// in-progress simultaneously. maxRunning must be >= 1.
func New[K comparable](maxRunning int) *Reserver[K] {
	rgwdebug.Assertf(maxRunning >= 1, "reserve: maxRunning must be >= 1, got %d", maxRunning)
	r := &Reserver[K]{
		maxRunning: maxRunning,
		running:    make(map[K]struct{}),
		queued:     make(map[K]struct{}),
		ready:      make(chan readyEntry[K], 64),
	}
	r.wg.Add(1)
	go r.drain()
	return r
}

// Request reserves key, calling onReady(key) once a slot is available.
// onReady runs on the drain goroutine, never synchronously from Request,
// and never while the internal lock is held. It is a programming error to
// request a key that is already queued or running.
func (r *Reserver[K]) Request(key K, onReady func(K)) {
	r.mu.Lock()
	_, alreadyRunning := r.running[key]
	_, alreadyQueued := r.queued[key]
	rgwdebug.Assertf(!alreadyRunning && !alreadyQueued, "reserve: duplicate reservation request for key %v", key)

	if len(r.running) < r.maxRunning {
		r.running[key] = struct{}{}
		r.mu.Unlock()
		r.ready <- readyEntry[K]{key: key, onRdy: onReady}
		return
	}

	r.queued[key] = struct{}{}
	r.order = append(r.order, key)
	r.pending = append(r.pending, onReady)
	r.mu.Unlock()
}

// Cancel removes key from the queue if it is still waiting, or releases it
// if it is currently running — in both cases making room for the next
// queued key to start. Canceling a key that is neither queued nor running
// is a no-op, mirroring AsyncReserver::cancel_reservation's tolerance of a
// stale cancel racing a completion.
func (r *Reserver[K]) Cancel(key K) {
	r.mu.Lock()
	if _, ok := r.queued[key]; ok {
		delete(r.queued, key)
		for i, k := range r.order {
			if k == key {
				r.order = append(r.order[:i], r.order[i+1:]...)
				r.pending = append(r.pending[:i], r.pending[i+1:]...)
				break
			}
		}
		r.mu.Unlock()
		return
	}
	if _, ok := r.running[key]; ok {
		delete(r.running, key)
		r.promoteLocked()
		return
	}
	r.mu.Unlock()
}

// Release frees a previously granted (running) reservation for key,
// allowing the next queued key (if any) to start. Call this when the
// reserved work completes successfully, as opposed to Cancel which is for
// abandoning a reservation.
func (r *Reserver[K]) Release(key K) {
	r.mu.Lock()
	_, ok := r.running[key]
	rgwdebug.Assertf(ok, "reserve: release of key %v that is not running", key)
	delete(r.running, key)
	r.promoteLocked()
}

// promoteLocked must be called with r.mu held; it unlocks before returning.
func (r *Reserver[K]) promoteLocked() {
	if len(r.order) == 0 || len(r.running) >= r.maxRunning {
		r.mu.Unlock()
		return
	}
	key := r.order[0]
	onReady := r.pending[0]
	r.order = r.order[1:]
	r.pending = r.pending[1:]
	delete(r.queued, key)
	r.running[key] = struct{}{}
	r.mu.Unlock()
	r.ready <- readyEntry[K]{key: key, onRdy: onReady}
}

func (r *Reserver[K]) drain() {
	defer r.wg.Done()
	for entry := range r.ready {
		entry.onRdy(entry.key)
	}
}

// Close stops the drain goroutine. No further Request calls are permitted
// after Close.
func (r *Reserver[K]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.ready)
	r.wg.Wait()
}
