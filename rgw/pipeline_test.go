package rgw

import (
	"context"
	"io"
	"testing"

	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgw/ops"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// fakeOp is a minimal ops.Op whose three stages each report whether they
// were called, and whose verification/execution can be made to fail on
// demand.
type fakeOp struct {
	failVerifyParams     bool
	failVerifyPermission bool
	failExecute          bool

	verifyParamsCalled     bool
	verifyPermissionCalled bool
	executeCalled          bool
}

func (*fakeOp) Name() string { return "fake_op" }
func (o *fakeOp) VerifyParams(*envelope.Envelope) error {
	o.verifyParamsCalled = true
	if o.failVerifyParams {
		return rgwerr.New(rgwerr.CodeInvalidArgument, "bad params")
	}
	return nil
}
func (o *fakeOp) VerifyPermission(*envelope.Envelope) error {
	o.verifyPermissionCalled = true
	if o.failVerifyPermission {
		return rgwerr.New(rgwerr.CodeAccessDenied, "denied")
	}
	return nil
}
func (o *fakeOp) Execute(context.Context, *envelope.Envelope, backend.Provider) error {
	o.executeCalled = true
	if o.failExecute {
		return rgwerr.New(rgwerr.CodeInternalError, "execute failed")
	}
	return nil
}

// fakeDialect resolves to a single fakeOp regardless of path, and skips
// real credential verification so the pipeline's sequencing can be tested
// in isolation from authn.
type fakeDialect struct {
	op            *fakeOp
	failGetOp     bool
	failAuthorize bool
	renderCalled  bool
}

func (*fakeDialect) Name() string                        { return "fake" }
func (*fakeDialect) Code() rgwerr.Dialect                 { return rgwerr.DialectS3 }
func (*fakeDialect) ValidateBucketName(string) error      { return nil }
func (*fakeDialect) ValidateObjectName(string) error      { return nil }
func (d *fakeDialect) GetOp(e *envelope.Envelope, rest string, query map[string]string, body io.Reader) (ops.Op, bool, bool, error) {
	if d.failGetOp {
		return nil, false, false, rgwerr.New(rgwerr.CodeMethodNotAllowed, "no such op")
	}
	e.Bucket = rest
	return d.op, false, false, nil
}
func (d *fakeDialect) Authorize(*envelope.Envelope) error {
	if d.failAuthorize {
		return rgwerr.New(rgwerr.CodeSignatureDoesNotMatch, "bad signature")
	}
	return nil
}
func (d *fakeDialect) Render(*envelope.Envelope, *render.Emitter, ops.Op) error {
	d.renderCalled = true
	return nil
}

func newTestEmitter() *render.Emitter {
	return render.NewEmitter(&fasthttp.RequestCtx{}, render.XML{})
}

func TestPipelineRunSuccess(t *testing.T) {
	op := &fakeOp{}
	d := &fakeDialect{op: op}
	e := envelope.New(1, "GET", "")
	pl := &Pipeline{}

	pl.Run(context.Background(), e, newTestEmitter(), d, "mybucket", nil, nil)

	if e.Err != nil {
		t.Fatalf("unexpected pipeline error: %v", e.Err)
	}
	if !op.verifyParamsCalled || !op.verifyPermissionCalled || !op.executeCalled {
		t.Fatalf("expected all three op stages to run: %+v", op)
	}
	if !d.renderCalled {
		t.Fatal("expected Render to be called on success")
	}
	if e.Bucket != "mybucket" {
		t.Fatalf("Bucket = %q, want mybucket", e.Bucket)
	}
}

func TestPipelineRunAbortsOnGetOpError(t *testing.T) {
	op := &fakeOp{}
	d := &fakeDialect{op: op, failGetOp: true}
	e := envelope.New(1, "GET", "")
	pl := &Pipeline{}

	pl.Run(context.Background(), e, newTestEmitter(), d, "mybucket", nil, nil)

	if e.Err == nil {
		t.Fatal("expected pipeline error when GetOp fails")
	}
	if op.verifyParamsCalled || op.verifyPermissionCalled || op.executeCalled {
		t.Fatalf("no op stage should run after GetOp fails: %+v", op)
	}
	if d.renderCalled {
		t.Fatal("Render must not run after an aborted pipeline")
	}
}

func TestPipelineRunAbortsOnAuthorizeError(t *testing.T) {
	op := &fakeOp{}
	d := &fakeDialect{op: op, failAuthorize: true}
	e := envelope.New(1, "GET", "")
	pl := &Pipeline{}

	pl.Run(context.Background(), e, newTestEmitter(), d, "mybucket", nil, nil)

	if e.Err == nil {
		t.Fatal("expected pipeline error when Authorize fails")
	}
	if op.verifyParamsCalled || op.verifyPermissionCalled || op.executeCalled {
		t.Fatalf("no op stage should run after Authorize fails: %+v", op)
	}
}

func TestPipelineRunAbortsOnVerifyPermissionError(t *testing.T) {
	// The pipeline runs VerifyPermission before VerifyParams (see Run's
	// own state-machine comment), so a VerifyPermission failure must skip
	// VerifyParams entirely, not just Execute.
	op := &fakeOp{failVerifyPermission: true}
	d := &fakeDialect{op: op}
	e := envelope.New(1, "GET", "")
	pl := &Pipeline{}

	pl.Run(context.Background(), e, newTestEmitter(), d, "mybucket", nil, nil)

	if e.Err == nil {
		t.Fatal("expected pipeline error when VerifyPermission fails")
	}
	if !op.verifyPermissionCalled {
		t.Fatal("expected VerifyPermission to run")
	}
	if op.verifyParamsCalled {
		t.Fatal("VerifyParams must not run once VerifyPermission has failed")
	}
	if op.executeCalled {
		t.Fatal("Execute must not run once VerifyPermission has failed")
	}
	if d.renderCalled {
		t.Fatal("Render must not run after an aborted pipeline")
	}
}

func TestPipelineRunSuspendedAccountBlocksExecution(t *testing.T) {
	op := &fakeOp{}
	d := &fakeDialect{op: op}
	e := envelope.New(1, "GET", "")
	pl := &Pipeline{Suspended: func(*envelope.Envelope) bool { return true }}

	pl.Run(context.Background(), e, newTestEmitter(), d, "mybucket", nil, nil)

	if e.Err == nil {
		t.Fatal("expected pipeline error for a suspended account")
	}
	if op.verifyPermissionCalled || op.executeCalled {
		t.Fatal("no op stage should run once the suspended check aborts")
	}
}
