package ops

import (
	"context"
	"io"
	"time"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// GetObjectOp streams an object's body back to the caller, honoring
// Range/If-Match/If-None-Match - mirrors RGWGetObj_ObjStore::get_params.
// If-Modified-Since and If-Unmodified-Since are not evaluated.
type GetObjectOp struct {
	RangeStart, RangeEnd int64 // RangeEnd <= 0 means "to the end"
	IfMatch              string
	IfNoneMatch          string

	Body io.ReadCloser
	Info backend.ObjInfo
}

func (*GetObjectOp) Name() string { return "get_obj" }

func (op *GetObjectOp) VerifyParams(*envelope.Envelope) error { return nil }

func (op *GetObjectOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}

func (op *GetObjectOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	release := acquire(getReserver, e.Bucket+"/"+e.Object)
	defer release()
	body, info, err := p.GetObject(ctx, e.Bucket, e.Object, op.RangeStart, op.RangeEnd)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchKey, err, "object not found")
	}
	if op.IfMatch != "" && op.IfMatch != info.ETag {
		body.Close()
		return rgwerr.New(rgwerr.CodePreconditionFailed, "If-Match failed")
	}
	if op.IfNoneMatch != "" && op.IfNoneMatch == info.ETag {
		body.Close()
		return rgwerr.New(rgwerr.CodeNotModified, "If-None-Match matched")
	}
	op.Body = body
	op.Info = info
	return nil
}

// HeadObjectOp is GetObjectOp without the body - mirrors RGWGetObj with
// get_data=false in the RGW source (HEAD shares the GET op with a flag).
type HeadObjectOp struct {
	Info backend.ObjInfo
}

func (*HeadObjectOp) Name() string                             { return "stat_obj" }
func (op *HeadObjectOp) VerifyParams(*envelope.Envelope) error  { return nil }
func (op *HeadObjectOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}
func (op *HeadObjectOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	info, err := p.StatObject(ctx, e.Bucket, e.Object)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchKey, err, "object not found")
	}
	op.Info = info
	return nil
}

// PutObjectOp implements the streaming put, with VerifyParams and Execute
// rejecting bodies larger than MaxPutSize the way
// RGWPutObj_ObjStore::verify_params does when MaxPutSize is above zero
// (the S3 and Swift dialects leave it at zero, so no limit applies), and
// Execute driving a backend.Writer through the
// prepare/handle_data/throttle_data/complete contract
// (OpenWriter/WriteChunk.../Commit).
type PutObjectOp struct {
	MaxPutSize   int64
	ContentLen   int64
	Body         io.Reader
	ChunkSize    int64 // mirrors RGW_MAX_CHUNK_SIZE

	Result Result
}

func (*PutObjectOp) Name() string { return "put_obj" }

func (op *PutObjectOp) VerifyParams(*envelope.Envelope) error {
	if op.MaxPutSize > 0 && op.ContentLen > op.MaxPutSize {
		return rgwerr.New(rgwerr.CodeEntityTooLarge, "object exceeds maximum put size")
	}
	return nil
}

func (op *PutObjectOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}

func (op *PutObjectOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	w, err := p.OpenWriter(ctx, e.Bucket, e.Object, e.Meta)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "could not open object for write")
	}
	chunkSize := op.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4 << 20
	}
	buf := make([]byte, chunkSize)
	var total int64
	for {
		n, rerr := op.Body.Read(buf)
		if n > 0 {
			total += int64(n)
			if op.MaxPutSize > 0 && total > op.MaxPutSize {
				w.Abort(ctx)
				return rgwerr.New(rgwerr.CodeEntityTooLarge, "object exceeds maximum put size")
			}
			if werr := w.WriteChunk(ctx, buf[:n]); werr != nil {
				w.Abort(ctx)
				return rgwerr.Wrap(rgwerr.CodeInternalError, werr, "write failed")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			w.Abort(ctx)
			return rgwerr.Wrap(rgwerr.CodeInternalError, rerr, "read failed")
		}
	}
	etag, err := w.Commit(ctx)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "commit failed")
	}
	op.Result = Result{ETag: etag, LastModified: render.FormatHTTPTime(time.Now())}
	return nil
}

// DeleteObjectOp removes a single object.
type DeleteObjectOp struct{}

func (*DeleteObjectOp) Name() string                            { return "delete_obj" }
func (*DeleteObjectOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*DeleteObjectOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (*DeleteObjectOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	if err := p.DeleteObject(ctx, e.Bucket, e.Object); err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchKey, err, "delete failed")
	}
	return nil
}

// CopyObjectOp copies an object server-side. VerifyPermission's short
// circuit mirrors RGWHandler_ObjStore::read_permissions's COPY special
// case: the source must be readable AND the destination bucket writable,
// both already resolved onto the envelope by the time this runs.
type CopyObjectOp struct {
	SrcBucket, SrcKey string
	Result            backend.ObjInfo
}

func (*CopyObjectOp) Name() string                            { return "copy_obj" }
func (*CopyObjectOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*CopyObjectOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth {
		return rgwerr.New(rgwerr.CodeAccessDenied, "copy requires read+write permission")
	}
	return nil
}
func (op *CopyObjectOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	info, err := p.CopyObject(ctx, op.SrcBucket, op.SrcKey, e.Bucket, e.Object)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchKey, err, "copy failed")
	}
	op.Result = info
	return nil
}
