// Package metrics exposes the gateway's perf counters, standing in for
// ceph's l_rgw_req/l_rgw_qlen/l_rgw_qactive/l_rgw_failed_req perfcounters
// set collection.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ReqTotal mirrors l_rgw_req: total requests handled.
	ReqTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rgwcore",
		Name:      "requests_total",
		Help:      "Total number of requests handled, by dialect and operation.",
	}, []string{"dialect", "op"})

	// FailedTotal mirrors l_rgw_failed_req.
	FailedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rgwcore",
		Name:      "requests_failed_total",
		Help:      "Total number of requests that aborted early with an error.",
	}, []string{"dialect", "op", "code"})

	// QueueLen mirrors l_rgw_qlen: current depth of the pool's admission queue.
	QueueLen = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rgwcore",
		Name:      "queue_length",
		Help:      "Current number of requests waiting in the worker pool's admission queue.",
	})

	// QueueActive mirrors l_rgw_qactive: requests currently being processed
	// by a worker.
	QueueActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "rgwcore",
		Name:      "queue_active",
		Help:      "Current number of requests actively held by a worker goroutine.",
	})

	// ReqDuration tracks per-operation latency.
	ReqDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "rgwcore",
		Name:      "request_duration_seconds",
		Help:      "Request handling latency in seconds, by dialect and operation.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"dialect", "op"})
)

func init() {
	prometheus.MustRegister(ReqTotal, FailedTotal, QueueLen, QueueActive, ReqDuration)
}
