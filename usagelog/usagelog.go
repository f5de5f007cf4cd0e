// Package usagelog implements the per-user, per-operation accounting
// record emitted on every request completion, distinct from the access
// log (rgwlog.ReqLogger) and from the aggregate dialect/op counters in
// metrics: the usage log answers "who did what, how much, and did it
// succeed", one line per request, never aggregated in-process.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package usagelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var sink zerolog.Logger

func init() {
	Init(os.Stdout)
}

// Init (re)configures the usage log's sink, independent of rgwlog's sink
// so usage accounting can be routed to its own file or pipe.
func Init(w io.Writer) {
	sink = zerolog.New(w).With().Timestamp().Logger()
}

// Record is one per-user, per-op accounting entry.
type Record struct {
	User    string
	Dialect string
	Op      string
	Bucket  string
	Object  string
	Bytes   int64
	Status  int
	Success bool
}

// Emit writes one usage-log line for r. Called once per completed request,
// from the pipeline's final logging step, mirroring the access log's
// one-line-per-request cadence but keyed on accounting fields rather than
// severity.
func Emit(r Record) {
	sink.Log().
		Time("ts", time.Now()).
		Str("user", r.User).
		Str("dialect", r.Dialect).
		Str("op", r.Op).
		Str("bucket", r.Bucket).
		Str("object", r.Object).
		Int64("bytes", r.Bytes).
		Int("status", r.Status).
		Bool("success", r.Success).
		Msg("usage")
}
