package rgw

import (
	"fmt"
	"strings"
	"testing"

	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/rgw/ops"
)

func newTestEnvelope(method string, headers map[string]string) *envelope.Envelope {
	e := envelope.New(1, method, "")
	for k, v := range headers {
		e.Headers[k] = v
	}
	return e
}

func TestS3DialectGetOpServiceScope(t *testing.T) {
	d := &S3Dialect{}
	e := newTestEnvelope("GET", nil)
	op, isCopy, isACLOp, err := d.GetOp(e, "/", nil, nil)
	if err != nil {
		t.Fatalf("GetOp: %v", err)
	}
	if _, ok := op.(*ops.ListBucketsOp); !ok {
		t.Fatalf("expected ListBucketsOp, got %T", op)
	}
	if isCopy || isACLOp {
		t.Fatalf("expected isCopy=false isACLOp=false, got %v %v", isCopy, isACLOp)
	}
}

func TestS3DialectGetOpBucketCreateDeleteStat(t *testing.T) {
	d := &S3Dialect{}
	cases := []struct {
		method   string
		wantType string
	}{
		{"PUT", "*ops.CreateBucketOp"},
		{"DELETE", "*ops.DeleteBucketOp"},
		{"HEAD", "*ops.StatBucketOp"},
	}
	for _, c := range cases {
		e := newTestEnvelope(c.method, nil)
		op, _, _, err := d.GetOp(e, "/mybucket", nil, nil)
		if err != nil {
			t.Fatalf("%s: GetOp: %v", c.method, err)
		}
		if e.Bucket != "mybucket" {
			t.Fatalf("%s: Bucket = %q, want mybucket", c.method, e.Bucket)
		}
		if got := fmt.Sprintf("%T", op); got != c.wantType {
			t.Fatalf("%s: op type = %s, want %s", c.method, got, c.wantType)
		}
	}
}

func TestS3DialectGetOpBucketACL(t *testing.T) {
	d := &S3Dialect{}
	e := newTestEnvelope("GET", nil)
	op, isCopy, isACLOp, err := d.GetOp(e, "/mybucket", map[string]string{"acl": ""}, nil)
	if err != nil {
		t.Fatalf("GetOp: %v", err)
	}
	if _, ok := op.(*ops.GetACLOp); !ok {
		t.Fatalf("expected GetACLOp, got %T", op)
	}
	if isCopy || !isACLOp {
		t.Fatalf("expected isCopy=false isACLOp=true, got %v %v", isCopy, isACLOp)
	}
}

func TestS3DialectGetOpObjectCopy(t *testing.T) {
	d := &S3Dialect{}
	e := newTestEnvelope("PUT", map[string]string{"x-amz-copy-source": "/srcbucket/srckey"})
	op, isCopy, isACLOp, err := d.GetOp(e, "/dstbucket/dstkey", nil, nil)
	if err != nil {
		t.Fatalf("GetOp: %v", err)
	}
	cp, ok := op.(*ops.CopyObjectOp)
	if !ok {
		t.Fatalf("expected CopyObjectOp, got %T", op)
	}
	if cp.SrcBucket != "srcbucket" || cp.SrcKey != "srckey" {
		t.Fatalf("unexpected copy source: bucket=%q key=%q", cp.SrcBucket, cp.SrcKey)
	}
	if e.Bucket != "dstbucket" || e.Object != "dstkey" {
		t.Fatalf("unexpected copy destination: bucket=%q object=%q", e.Bucket, e.Object)
	}
	if !isCopy || isACLOp {
		t.Fatalf("expected isCopy=true isACLOp=false, got %v %v", isCopy, isACLOp)
	}
}

func TestS3DialectGetOpMultipartDispatch(t *testing.T) {
	d := &S3Dialect{}

	e := newTestEnvelope("POST", nil)
	op, _, _, err := d.GetOp(e, "/b/k", map[string]string{"uploads": ""}, nil)
	if err != nil {
		t.Fatalf("init: GetOp: %v", err)
	}
	if _, ok := op.(*ops.InitMultipartOp); !ok {
		t.Fatalf("expected InitMultipartOp, got %T", op)
	}

	e = newTestEnvelope("PUT", nil)
	op, _, _, err = d.GetOp(e, "/b/k", map[string]string{"uploadId": "up1", "partNumber": "3"}, strings.NewReader("body"))
	if err != nil {
		t.Fatalf("upload part: GetOp: %v", err)
	}
	up, ok := op.(*ops.UploadPartOp)
	if !ok {
		t.Fatalf("expected UploadPartOp, got %T", op)
	}
	if up.UploadID != "up1" || up.PartNumber != 3 {
		t.Fatalf("unexpected UploadPartOp: %+v", up)
	}

	e = newTestEnvelope("DELETE", nil)
	op, _, _, err = d.GetOp(e, "/b/k", map[string]string{"uploadId": "up1"}, nil)
	if err != nil {
		t.Fatalf("abort: GetOp: %v", err)
	}
	if _, ok := op.(*ops.AbortMultipartOp); !ok {
		t.Fatalf("expected AbortMultipartOp, got %T", op)
	}
}

