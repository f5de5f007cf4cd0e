package ops

import (
	"context"
	"io"
	"strings"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/multipart"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// ListBucketOp lists objects in a single bucket - mirrors
// RGWListBucket_ObjStore_S3's get_params and its 1000-entry default_max.
type ListBucketOp struct {
	DefaultMax int
	Prefix     string
	Delimiter  string
	Marker     string
	MaxKeys    int

	Result backend.ListResult
}

func (*ListBucketOp) Name() string { return "list_bucket" }

func (op *ListBucketOp) VerifyParams(*envelope.Envelope) error {
	if op.DefaultMax <= 0 {
		op.DefaultMax = 1000
	}
	if op.MaxKeys <= 0 || op.MaxKeys > op.DefaultMax {
		op.MaxKeys = op.DefaultMax
	}
	return nil
}

func (*ListBucketOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}

func (op *ListBucketOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	res, err := p.ListObjects(ctx, e.Bucket, op.Prefix, op.Delimiter, op.Marker, op.MaxKeys)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchBucket, err, "bucket not found")
	}
	res.Objects = filterPseudoObjects(res.Objects)
	op.Result = res
	return nil
}

// filterPseudoObjects strips the internal bookkeeping objects that ride
// alongside real keys on a Provider - ACL siblings ("<key>.acl") and
// in-progress multipart state ("<key>.<uploadID>.meta" /
// "<key>.<uploadID>.<n>") - so a plain bucket listing only ever shows
// objects a client actually put there.
func filterPseudoObjects(objs []backend.ObjInfo) []backend.ObjInfo {
	out := objs[:0]
	for _, o := range objs {
		if strings.HasSuffix(o.Key, ".acl") {
			continue
		}
		if _, _, ok := multipart.ParseMeta(o.Key); ok {
			continue
		}
		if multipart.IsPart(o.Key) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// ListBucketsOp lists every bucket visible to the caller (the S3 "service"
// operation / Swift account listing) - mirrors RGWListBuckets_ObjStore_S3.
type ListBucketsOp struct {
	Result []backend.BucketInfo
}

func (*ListBucketsOp) Name() string                            { return "list_buckets" }
func (*ListBucketsOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*ListBucketsOp) VerifyPermission(*envelope.Envelope) error { return nil }
func (op *ListBucketsOp) Execute(ctx context.Context, _ *envelope.Envelope, p backend.Provider) error {
	res, err := p.ListBuckets(ctx)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "list buckets failed")
	}
	op.Result = res
	return nil
}

// StatAccountOp returns account-level statistics. With no per-account
// quota tracking in this Provider interface, it reports the bucket count
// as a minimal but real signal - mirrors RGWStatAccount's shape without
// ceph's usage-log-derived byte/object counters, which live outside the
// backend.Provider boundary.
type StatAccountOp struct {
	NumBuckets int
}

func (*StatAccountOp) Name() string                            { return "stat_account" }
func (*StatAccountOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*StatAccountOp) VerifyPermission(*envelope.Envelope) error { return nil }
func (op *StatAccountOp) Execute(ctx context.Context, _ *envelope.Envelope, p backend.Provider) error {
	buckets, err := p.ListBuckets(ctx)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "stat account failed")
	}
	op.NumBuckets = len(buckets)
	return nil
}

// StatBucketOp returns one bucket's metadata - mirrors
// RGWStatBucket_ObjStore_S3.
type StatBucketOp struct {
	Result backend.BucketInfo
}

func (*StatBucketOp) Name() string                            { return "stat_bucket" }
func (*StatBucketOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*StatBucketOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}
func (op *StatBucketOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	info, err := p.StatBucket(ctx, e.Bucket)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeNoSuchBucket, err, "bucket not found")
	}
	op.Result = info
	return nil
}

// CreateBucketOp creates a new bucket - mirrors RGWCreateBucket_ObjStore_S3
// and read_permissions's create-bucket fallthrough (a PUT to a path with
// no object component resolves to this op, not PutObjectOp).
type CreateBucketOp struct{}

func (*CreateBucketOp) Name() string                            { return "create_bucket" }
func (*CreateBucketOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*CreateBucketOp) VerifyPermission(*envelope.Envelope) error { return nil }
func (*CreateBucketOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	if err := p.CreateBucket(ctx, e.Bucket); err != nil {
		return rgwerr.Wrap(rgwerr.CodeBucketAlreadyExists, err, "bucket already exists")
	}
	return nil
}

// DeleteBucketOp deletes an (empty) bucket.
type DeleteBucketOp struct{}

func (*DeleteBucketOp) Name() string                            { return "delete_bucket" }
func (*DeleteBucketOp) VerifyParams(*envelope.Envelope) error    { return nil }
func (*DeleteBucketOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (*DeleteBucketOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	if err := p.DeleteBucket(ctx, e.Bucket); err != nil {
		return rgwerr.Wrap(rgwerr.CodeBucketNotEmpty, err, "bucket not empty or not found")
	}
	return nil
}

// GetACLOp and PutACLOp round out the ACL operations. This Provider
// boundary has no ACL storage of its own (localfs/s3/azureblob/gcs/hdfs
// all proxy to stores with their own, incompatible ACL models), so each
// object's ACL document is persisted as a sibling pseudo-object
// ("<key>.acl") rather than folded into the object's own metadata, which
// would require rewriting (and risk truncating) the object body just to
// change its policy.
func aclSiblingKey(key string) string { return key + ".acl" }

type GetACLOp struct {
	Result string
}

func (*GetACLOp) Name() string                         { return "get_acl" }
func (*GetACLOp) VerifyParams(*envelope.Envelope) error { return nil }
func (*GetACLOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode == envelope.PermNone {
		return rgwerr.New(rgwerr.CodeAccessDenied, "read permission required")
	}
	return nil
}
func (op *GetACLOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	body, _, err := p.GetObject(ctx, e.Bucket, aclSiblingKey(e.Object), 0, 0)
	if err != nil {
		op.Result = ""
		return nil // no ACL set yet is not an error - mirrors a default/empty ACL
	}
	defer body.Close()
	b, err := io.ReadAll(body)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "acl read failed")
	}
	op.Result = string(b)
	return nil
}

// PutACLOp's Body carries the raw ACL document from
// RGWPutACLs_ObjStore::get_params, stored verbatim.
type PutACLOp struct {
	Body string
}

func (*PutACLOp) Name() string                         { return "put_acl" }
func (*PutACLOp) VerifyParams(*envelope.Envelope) error { return nil }
func (*PutACLOp) VerifyPermission(e *envelope.Envelope) error {
	if e.PermMode != envelope.PermBoth && e.PermMode != envelope.PermOnlyBucket {
		return rgwerr.New(rgwerr.CodeAccessDenied, "write permission required")
	}
	return nil
}
func (op *PutACLOp) Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error {
	w, err := p.OpenWriter(ctx, e.Bucket, aclSiblingKey(e.Object), nil)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "acl update failed")
	}
	if err := w.WriteChunk(ctx, []byte(op.Body)); err != nil {
		w.Abort(ctx)
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "acl update failed")
	}
	if _, err := w.Commit(ctx); err != nil {
		return rgwerr.Wrap(rgwerr.CodeInternalError, err, "acl update failed")
	}
	return nil
}
