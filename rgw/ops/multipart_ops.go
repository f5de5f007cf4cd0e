package ops

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/multipart"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// InitMultipartOp begins a multipart upload - mirrors
// RGWInitMultipart_ObjStore's "uploads" query-param check (already
// resolved by the router/handler before this op runs) and writes the meta
// entry for the upload id the handler allocated.
type InitMultipartOp struct {
	UploadID string // caller-supplied, e.g. from reqid.NextToken()
	Result   multipart.MPObj
}

func (*InitMultipartOp) Name() string                         { return "init_multipart" }
func (*InitMultipartOp) VerifyParams(*envelope.Envelope) error { return nil }
func (*InitMultipartOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (op *InitMultipartOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	mp := multipart.New(e.Object, op.UploadID)
	w, err := p.OpenWriter(ctx, e.Bucket, mp.Meta(), e.Meta)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "init multipart failed")
	}
	if _, err := w.Commit(ctx); err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "init multipart failed")
	}
	op.Result = mp
	return nil
}

// UploadPartOp uploads one part of an in-progress multipart upload -
// mirrors RGWPutObj_ObjStore's per-part path when a partNumber/uploadId
// query pair is present.
type UploadPartOp struct {
	UploadID   string
	PartNumber int
	Body       io.Reader
	ChunkSize  int64

	ETag string
}

func (*UploadPartOp) Name() string                         { return "upload_part" }
func (*UploadPartOp) VerifyParams(op0 *envelope.Envelope) error { return nil }
func (*UploadPartOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (op *UploadPartOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	release := acquire(partReserver, e.Bucket+"/"+op.UploadID)
	defer release()
	mp := multipart.New(e.Object, op.UploadID)
	w, err := p.OpenWriter(ctx, e.Bucket, mp.Part(op.PartNumber), nil)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchUpload, err, "upload not found")
	}
	chunkSize := op.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 4 << 20
	}
	buf := make([]byte, chunkSize)
	for {
		n, rerr := op.Body.Read(buf)
		if n > 0 {
			if werr := w.WriteChunk(ctx, buf[:n]); werr != nil {
				w.Abort(ctx)
				return rgwerr.Wrap(rgwerr.CodeInternalError, werr, "part write failed")
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			w.Abort(ctx)
			return rgwerr.Wrap(rgwerr.CodeInternalError, rerr, "part read failed")
		}
	}
	etag, err := w.Commit(ctx)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "part commit failed")
	}
	op.ETag = etag
	return nil
}

// CompletePart is one entry of a CompleteMultipartOp request body.
type CompletePart struct {
	PartNumber int
	ETag       string
}

// CompleteMultipartOp finalizes a multipart upload by concatenating parts
// in order and validating each part's ETag - mirrors
// RGWCompleteMultipart_ObjStore's uploadId-required, body-present
// contract (the body itself, sent chunked or with Content-Length, is
// parsed by the handler's read_all_chunked_input-equivalent path before
// reaching here).
type CompleteMultipartOp struct {
	UploadID string
	Parts    []CompletePart

	ETag string
}

func (*CompleteMultipartOp) Name() string { return "complete_multipart" }

func (op *CompleteMultipartOp) VerifyParams(*envelope.Envelope) error {
	if op.UploadID == "" {
		return rgwerr.New(rgwerr.CodeInvalidArgument, "uploadId required")
	}
	if len(op.Parts) == 0 {
		return rgwerr.New(rgwerr.CodeInvalidArgument, "no parts supplied")
	}
	return nil
}

func (*CompleteMultipartOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}

func (op *CompleteMultipartOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	mp := multipart.New(e.Object, op.UploadID)

	sorted := append([]CompletePart(nil), op.Parts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].PartNumber < sorted[j].PartNumber })

	w, err := p.OpenWriter(ctx, e.Bucket, e.Object, e.Meta)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "complete multipart failed")
	}
	var etags []string
	for _, part := range sorted {
		body, info, err := p.GetObject(ctx, e.Bucket, mp.Part(part.PartNumber), 0, 0)
		if err != nil {
			w.Abort(ctx)
			return rgwerr.Wrap(rgwerr.CodeInvalidPart, err, "missing part")
		}
		if info.ETag != part.ETag {
			body.Close()
			w.Abort(ctx)
			return rgwerr.New(rgwerr.CodeInvalidPart, "part ETag mismatch")
		}
		_, err = io.Copy(writerAdapter{w: w, ctx: ctx}, body)
		body.Close()
		if err != nil {
			w.Abort(ctx)
			return rgwerr.Wrap(rgwerr.CodeInternalError, err, "part assembly failed")
		}
		etags = append(etags, part.ETag)
	}
	etag, err := w.Commit(ctx)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "complete multipart failed")
	}
	op.ETag = etag

	for _, part := range sorted {
		p.DeleteObject(ctx, e.Bucket, mp.Part(part.PartNumber))
	}
	p.DeleteObject(ctx, e.Bucket, mp.Meta())
	_ = etags
	return nil
}

type writerAdapter struct {
	w   backend.Writer
	ctx context.Context
}

func (a writerAdapter) Write(b []byte) (int, error) {
	if err := a.w.WriteChunk(a.ctx, b); err != nil {
		return 0, err
	}
	return len(b), nil
}

// AbortMultipartOp cancels an in-progress upload, removing its meta entry
// and any parts uploaded so far.
type AbortMultipartOp struct {
	UploadID string
}

func (*AbortMultipartOp) Name() string                         { return "abort_multipart" }
func (*AbortMultipartOp) VerifyParams(*envelope.Envelope) error { return nil }
func (*AbortMultipartOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (op *AbortMultipartOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	mp := multipart.New(e.Object, op.UploadID)
	listing, err := p.ListObjects(ctx, e.Bucket, e.Object+"."+op.UploadID+".", "", "", 10000)
	if err == nil {
		for _, o := range listing.Objects {
			if o.Key == mp.Meta() {
				continue
			}
			p.DeleteObject(ctx, e.Bucket, o.Key)
		}
	}
	return p.DeleteObject(ctx, e.Bucket, mp.Meta())
}

// ListMultipartOp lists the parts uploaded so far for one upload - mirrors
// RGWListMultipart_ObjStore's uploadId/part-number-marker/max-parts
// params.
type ListMultipartOp struct {
	UploadID        string
	PartNumberMarker int
	MaxParts        int

	Parts []backend.ObjInfo
}

func (*ListMultipartOp) Name() string { return "list_multipart" }

func (op *ListMultipartOp) VerifyParams(*envelope.Envelope) error {
	if op.UploadID == "" {
		return rgwerr.New(rgwerr.CodeInvalidArgument, "uploadId required")
	}
	if op.MaxParts <= 0 {
		op.MaxParts = 1000
	}
	return nil
}

func (*ListMultipartOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}

func (op *ListMultipartOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	prefix := e.Object + "." + op.UploadID + "."
	res, err := p.ListObjects(ctx, e.Bucket, prefix, "", "", op.MaxParts+op.PartNumberMarker)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchUpload, err, "upload not found")
	}
	for _, o := range res.Objects {
		if strings.HasSuffix(o.Key, ".meta") {
			continue
		}
		op.Parts = append(op.Parts, o)
	}
	return nil
}

// ListBucketMultipartsOp lists in-progress uploads for a bucket - mirrors
// RGWListBucketMultiparts and fixes the default_max/max_uploads Open
// Question bug: DefaultMax must be populated before VerifyParams ever
// reads MaxUploads, so the op's constructor-equivalent (NewListBucketMultipartsOp)
// sets it first.
type ListBucketMultipartsOp struct {
	DefaultMax    int
	Delimiter     string
	Prefix        string
	MaxUploads    int
	KeyMarker     string
	UploadIDMarker string

	Uploads []multipart.MPObj
}

// NewListBucketMultipartsOp constructs the op with DefaultMax set before
// anything can read MaxUploads - this ordering fixes a real Ceph
// constructor-initialization-order bug where max_uploads could be read from
// the query string before default_max had been assigned, silently capping
// it at zero.
func NewListBucketMultipartsOp() *ListBucketMultipartsOp {
	return &ListBucketMultipartsOp{DefaultMax: 1000}
}

func (*ListBucketMultipartsOp) Name() string { return "list_bucket_multiparts" }

func (op *ListBucketMultipartsOp) VerifyParams(*envelope.Envelope) error {
	if op.MaxUploads <= 0 || op.MaxUploads > op.DefaultMax {
		op.MaxUploads = op.DefaultMax
	}
	return nil
}

func (*ListBucketMultipartsOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}

func (op *ListBucketMultipartsOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	res, err := p.ListObjects(ctx, e.Bucket, op.Prefix, op.Delimiter, op.KeyMarker, op.MaxUploads*4)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchBucket, err, "bucket not found")
	}
	for _, o := range res.Objects {
		key, uploadID, ok := multipart.ParseMeta(o.Key)
		if !ok {
			continue
		}
		if op.UploadIDMarker != "" && uploadID <= op.UploadIDMarker {
			continue
		}
		op.Uploads = append(op.Uploads, multipart.New(key, uploadID))
		if len(op.Uploads) >= op.MaxUploads {
			break
		}
	}
	return nil
}

// DeleteMultiObjOp deletes several objects in one request - mirrors
// RGWDeleteMultiObj_ObjStore's body-parsed key list.
type DeleteMultiObjOp struct {
	Keys []string

	Deleted []string
	Errors  map[string]string
}

func (*DeleteMultiObjOp) Name() string { return "delete_multi_obj" }

func (op *DeleteMultiObjOp) VerifyParams(*envelope.Envelope) error {
	if len(op.Keys) == 0 {
		return rgwerr.New(rgwerr.CodeInvalidArgument, "no keys supplied")
	}
	return nil
}

func (*DeleteMultiObjOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}

func (op *DeleteMultiObjOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	op.Errors = make(map[string]string)
	for _, key := range op.Keys {
		if err := p.DeleteObject(ctx, e.Bucket, key); err != nil {
			op.Errors[key] = err.Error()
			continue
		}
		op.Deleted = append(op.Deleted, key)
	}
	return nil
}
