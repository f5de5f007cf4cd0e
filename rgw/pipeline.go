package rgw

import (
	"context"
	"io"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/metrics"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgwerr"
	"github.com/NVIDIA/rgwcore/rgwlog"
	"github.com/NVIDIA/rgwcore/usagelog"
)

// SuspendChecker reports whether a bucket/user is administratively
// suspended - a hook point, not a concrete store; nil means "nothing is
// ever suspended".
type SuspendChecker func(e *envelope.Envelope) bool

// Pipeline drives one request through the exact sequential state machine:
// get_op -> validate names -> authorize -> suspended-check ->
// read_permissions -> verify_permission -> verify_params -> execute ->
// render -> log. Each step can abort the chain by calling e.Abort; once
// aborted, all later steps are skipped and Run proceeds straight to
// error-render and log.
type Pipeline struct {
	Provider  backend.Provider
	Suspended SuspendChecker
}

// Run executes the full pipeline for e against the dialect resolved by the
// router, given the router-stripped rest-of-path, the parsed query string,
// and the request body. It never returns an error - failures are latched
// onto e.Err and rendered through emit.
func (pl *Pipeline) Run(ctx context.Context, e *envelope.Envelope, emit *render.Emitter, dialect Dialect, rest string, query map[string]string, body io.Reader) {
	e.SetDialect(dialect.Code(), dialect.Name())

	op, isCopy, isACLOp, err := dialect.GetOp(e, rest, query, body)
	if err != nil {
		e.Abort(err)
	}

	if e.Err == nil {
		e.SetOp(op.Name())
		if err := dialect.ValidateBucketName(e.Bucket); err != nil {
			e.Abort(err)
		}
	}
	if e.Err == nil && e.Object != "" {
		if err := dialect.ValidateObjectName(e.Object); err != nil {
			e.Abort(err)
		}
	}

	if e.Err == nil {
		if err := dialect.Authorize(e); err != nil {
			e.Abort(err)
		}
	}

	if e.Err == nil && pl.Suspended != nil && pl.Suspended(e) {
		e.Abort(rgwerr.New(rgwerr.CodeAccessDenied, "account suspended"))
	}

	if e.Err == nil {
		ReadPermissions(e, isCopy, isACLOp)
		if err := op.VerifyPermission(e); err != nil {
			e.Abort(err)
		}
	}

	if e.Err == nil {
		if err := op.VerifyParams(e); err != nil {
			e.Abort(err)
		}
	}

	if e.Err == nil {
		if err := op.Execute(ctx, e, pl.Provider); err != nil {
			e.Abort(err)
		}
	}

	if e.Err == nil {
		if err := dialect.Render(e, emit, op); err != nil {
			e.Abort(err)
		}
	}

	status := pl.complete(e, emit)
	pl.log(e, status)
}

// complete renders the final response - success already wrote its body via
// dialect.Render, so on the happy path this just reports e's status; on
// abort it drives the single abort-early error path.
func (pl *Pipeline) complete(e *envelope.Envelope, emit *render.Emitter) int {
	if e.Err != nil {
		return emit.AbortEarly(e.Dialect, e.Err, "")
	}
	if e.StatusCode == 0 {
		return 200
	}
	return e.StatusCode
}

// log emits the per-request access-log line and updates request metrics -
// mirrors RGWRequest::log.
func (pl *Pipeline) log(e *envelope.Envelope, status int) {
	lvl := rgwlog.INF
	if e.Err != nil {
		lvl = rgwlog.WRN
	}
	e.Logf(lvl, "completed status=%d", status)

	metrics.ReqTotal.WithLabelValues(e.DialectName, e.OpName).Inc()
	if e.Err != nil {
		oe := rgwerr.AsOpError(e.Err)
		_, wireName := rgwerr.Resolve(e.Dialect, oe.Code)
		metrics.FailedTotal.WithLabelValues(e.DialectName, e.OpName, wireName).Inc()
	}

	usagelog.Emit(usagelog.Record{
		User:    e.User,
		Dialect: e.DialectName,
		Op:      e.OpName,
		Bucket:  e.Bucket,
		Object:  e.Object,
		Status:  status,
		Success: e.Err == nil,
	})
}
