// Package envelope implements the per-request state object (C3): the
// fields carried from accept through completion, metadata-header
// normalization, and the typed error slot the pipeline fills in on
// abort-early.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package envelope

import (
	"fmt"
	"strings"
	"time"

	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgwerr"
	"github.com/NVIDIA/rgwcore/rgwlog"
)

// PermMode selects which ACL/policy checks read_permissions performs.
type PermMode int

const (
	PermNone PermMode = iota
	PermOnlyBucket
	PermBoth
)

// Envelope carries all per-request state from accept through completion.
// One is constructed per incoming request and discarded at cleanup.
type Envelope struct {
	ID     uint64
	Start  time.Time
	Method string
	Host   string
	Bucket string
	Object string
	Query  map[string]string

	Dialect     rgwerr.Dialect
	DialectName string
	OpName      string
	PermMode    PermMode

	// User is the authenticated account name, populated by the dialect's
	// Authorize step; empty until then.
	User string

	// Meta holds normalized request metadata headers: keys are the
	// normalized form (lowercased, underscores turned to hyphens) with
	// their meta_prefixes table prefix stripped; duplicate headers of the
	// same key are comma-joined, mirroring rgw_rest.cc::init_meta_info.
	Meta map[string]string
	// BadMeta is set when a metadata header value failed validation
	// (mirrors the "_META_" flag in init_meta_info).
	BadMeta bool

	Headers    map[string]string
	Formatter  render.Formatter
	StatusCode int

	Err error // set by the pipeline's abort-early path; nil on success

	log *rgwlog.ReqLogger
}

// New constructs an Envelope for a freshly accepted request.
func New(id uint64, method, host string) *Envelope {
	e := &Envelope{
		ID:     id,
		Start:  time.Now(),
		Method: method,
		Host:   host,
		Query:  make(map[string]string),
		Meta:   make(map[string]string),
		Headers: make(map[string]string),
	}
	e.log = rgwlog.NewReqLogger(id, e.Start)
	e.log.Method = method
	e.log.Host = host
	return e
}

// SetDialect updates the envelope and its logger with the resolved dialect
// name for log-line formatting.
func (e *Envelope) SetDialect(d rgwerr.Dialect, name string) {
	e.Dialect = d
	e.DialectName = name
	e.log.Dialect = name
}

// SetOp records the resolved operation name for logging.
func (e *Envelope) SetOp(name string) {
	e.OpName = name
	e.log.Op = name
}

func (e *Envelope) SetPath(path string) { e.log.Path = path }

func (e *Envelope) Logf(lvl rgwlog.Level, format string, args ...interface{}) {
	e.log.Log(lvl, sprintf(format, args...))
}

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// metaPrefixes mirrors rgw_rest.cc's meta_prefixes table: any header whose
// lowercased name starts with one of these is treated as object/bucket
// metadata rather than a plain HTTP header.
var metaPrefixes = []string{
	"x-amz-meta-",
	"x-goog-meta-",
	"x-dho-meta-",
	"x-rgw-meta-",
	"x-object-meta-",
	"x-container-meta-",
}

// LineUnfold collapses a header's continuation-line whitespace the way
// rgw_rest.cc's line_unfold does: runs of whitespace (including embedded
// CR/LF from folded header continuations) collapse to a single space, and
// leading/trailing whitespace is trimmed.
func LineUnfold(s string) string {
	var b strings.Builder
	inWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !inWS && b.Len() > 0 {
				b.WriteByte(' ')
			}
			inWS = true
			continue
		}
		inWS = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

// InitMetaInfo scans raw request headers, extracts the ones matching
// metaPrefixes, normalizes their names (strip prefix, lowercase,
// underscore->hyphen) and values (LineUnfold), comma-joins duplicates, and
// sets BadMeta if any normalized value fails validation (mirrors the
// "_META_" bad-meta flag - here, a value containing a raw NUL byte).
func (e *Envelope) InitMetaInfo(rawHeaders map[string][]string) {
	for name, values := range rawHeaders {
		lower := strings.ToLower(name)
		var prefix string
		for _, p := range metaPrefixes {
			if strings.HasPrefix(lower, p) {
				prefix = p
				break
			}
		}
		if prefix == "" {
			continue
		}
		key := strings.ReplaceAll(strings.TrimPrefix(lower, prefix), "_", "-")
		for _, v := range values {
			unfolded := LineUnfold(v)
			if strings.ContainsRune(unfolded, 0) {
				e.BadMeta = true
				continue
			}
			if existing, ok := e.Meta[key]; ok {
				e.Meta[key] = existing + "," + unfolded
			} else {
				e.Meta[key] = unfolded
			}
		}
	}
}

// Abort sets the envelope's error slot. Only the first Abort call takes
// effect, mirroring abort_early's single abort-early path: once an error
// is latched, subsequent pipeline steps must check Err and skip their
// work rather than overwrite it.
func (e *Envelope) Abort(err error) {
	if e.Err == nil {
		e.Err = err
	}
}
