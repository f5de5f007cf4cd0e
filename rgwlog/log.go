// Package rgwlog provides leveled, structured logging for the gateway core.
//
// The original source (rgw_main.cc) logs through ceph's dout()/derr at
// numeric verbosity levels, collapsed here onto a 5-level taxonomy {DBG,
// INF, SEC, WRN, ERR}. We keep that taxonomy but back it with a real
// structured logger (zerolog) instead of hand-rolled printf-to-stderr,
// matching the severity-call texture of glog.Infof/Warningf/Errorf call
// sites (ais/daemon.go, ais/backend/http.go) while giving every log line
// request-id/dialect/op fields for free.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgwlog

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is the 5-level severity taxonomy {DBG, INF, SEC, WRN, ERR}.
type Level uint8

const (
	DBG Level = iota
	INF
	SEC
	WRN
	ERR
)

func (l Level) String() string {
	switch l {
	case DBG:
		return "DBG"
	case INF:
		return "INF"
	case SEC:
		return "SEC"
	case WRN:
		return "WRN"
	case ERR:
		return "ERR"
	default:
		return "???"
	}
}

var root zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	Init(os.Stderr)
}

// Init (re)configures the root logger's sink. Exposed so daemon startup can
// redirect output (e.g. to a rotating file) the way rgw_main.cc redirects
// stderr to stdout for FastCGI compatibility.
func Init(w io.Writer) {
	root = zerolog.New(w).With().Timestamp().Logger()
}

func log(lvl Level, msg string, fields map[string]interface{}) {
	var ev *zerolog.Event
	switch lvl {
	case DBG:
		ev = root.Debug()
	case INF:
		ev = root.Info()
	case SEC:
		ev = root.Log() // security events are always emitted regardless of level filter
	case WRN:
		ev = root.Warn()
	case ERR:
		ev = root.Error()
	default:
		ev = root.Info()
	}
	ev = ev.Str("sev", lvl.String())
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

func Debugf(format string, args ...interface{}) { root.Debug().Str("sev", DBG.String()).Msgf(format, args...) }
func Infof(format string, args ...interface{})  { root.Info().Str("sev", INF.String()).Msgf(format, args...) }
func Secf(format string, args ...interface{})   { root.Log().Str("sev", SEC.String()).Msgf(format, args...) }
func Warnf(format string, args ...interface{})  { root.Warn().Str("sev", WRN.String()).Msgf(format, args...) }
func Errorf(format string, args ...interface{}) { root.Error().Str("sev", ERR.String()).Msgf(format, args...) }

// ReqLogger produces the single per-request logging helper: every line is
// prefixed
// "req <id>:<elapsed>:<dialect>:<method + host/bucket + path>:<opname>:<message>".
type ReqLogger struct {
	ID      uint64
	Dialect string
	Method  string
	Host    string
	Path    string
	Op      string
	start   time.Time
}

func NewReqLogger(id uint64, start time.Time) *ReqLogger {
	return &ReqLogger{ID: id, start: start}
}

func (r *ReqLogger) Log(lvl Level, msg string) {
	elapsed := time.Since(r.start)
	reqStr := r.Method
	if r.Host != "" {
		reqStr += " " + r.Host + "/" + r.Path
	} else {
		reqStr += " " + r.Path
	}
	line := fmt.Sprintf("req %d:%s:%s:%s:%s:%s", r.ID, elapsed, r.Dialect, reqStr, r.Op, msg)
	log(lvl, line, map[string]interface{}{
		"req":     r.ID,
		"elapsed": elapsed.String(),
		"dialect": r.Dialect,
		"request": reqStr,
		"op":      r.Op,
	})
}

func (r *ReqLogger) Debugf(format string, args ...interface{}) { r.Log(DBG, sprintf(format, args...)) }
func (r *ReqLogger) Infof(format string, args ...interface{})  { r.Log(INF, sprintf(format, args...)) }
func (r *ReqLogger) Warnf(format string, args ...interface{})  { r.Log(WRN, sprintf(format, args...)) }
func (r *ReqLogger) Errorf(format string, args ...interface{}) { r.Log(ERR, sprintf(format, args...)) }

func sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
