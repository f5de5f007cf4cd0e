// Package reqid generates per-request identifiers for the envelope,
// standing in for rgw_main.cc's monotonically-bumped max_req_id counter.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package reqid

import (
	"sync/atomic"

	"github.com/teris-io/shortid"
)

var counter uint64

var gen *shortid.Shortid

func init() {
	var err error
	gen, err = shortid.New(1, shortid.DefaultABC, 0xdeadbeef)
	if err != nil {
		gen = nil
	}
}

// Next returns a process-unique, strictly increasing numeric id for the
// per-request log line (the "req <id>:..." prefix needs a sortable
// integer, not an opaque string).
func Next() uint64 {
	return atomic.AddUint64(&counter, 1)
}

// NextToken returns a short, URL-safe opaque token suitable for a
// client-visible request id (x-amz-request-id / X-Trans-Id), distinct from
// the internal sequential id used for log correlation.
func NextToken() string {
	if gen == nil {
		return ""
	}
	s, err := gen.Generate()
	if err != nil {
		return ""
	}
	return s
}
