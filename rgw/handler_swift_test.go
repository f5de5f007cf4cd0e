package rgw

import (
	"fmt"
	"testing"

	"github.com/NVIDIA/rgwcore/rgw/ops"
)

func TestSwiftDialectGetOpAccountScope(t *testing.T) {
	d := &SwiftDialect{}
	e := newTestEnvelope("GET", nil)
	op, isCopy, isACLOp, err := d.GetOp(e, "v1/AUTH_test", nil, nil)
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

func TestSwiftDialectGetOpContainerScope(t *testing.T) {
	d := &SwiftDialect{}
	cases := []struct {
		method   string
		wantType string
	}{
		{"PUT", "*ops.CreateBucketOp"},
		{"DELETE", "*ops.DeleteBucketOp"},
		{"HEAD", "*ops.StatBucketOp"},
		{"GET", "*ops.ListBucketOp"},
	}
	for _, c := range cases {
		e := newTestEnvelope(c.method, nil)
		op, _, _, err := d.GetOp(e, "v1/AUTH_test/mycontainer", nil, nil)
		if err != nil {
			t.Fatalf("%s: GetOp: %v", c.method, err)
		}
		if e.Bucket != "mycontainer" {
			t.Fatalf("%s: Bucket = %q, want mycontainer", c.method, e.Bucket)
		}
		if got := fmt.Sprintf("%T", op); got != c.wantType {
			t.Fatalf("%s: op type = %s, want %s", c.method, got, c.wantType)
		}
	}
}

func TestSwiftDialectGetOpObjectCopy(t *testing.T) {
	d := &SwiftDialect{}
	e := newTestEnvelope("COPY", map[string]string{"destination": "/dstcontainer/dstobj"})
	op, isCopy, isACLOp, err := d.GetOp(e, "v1/AUTH_test/srccontainer/srcobj", nil, nil)
	if err != nil {
		t.Fatalf("GetOp: %v", err)
	}
	cp, ok := op.(*ops.CopyObjectOp)
	if !ok {
		t.Fatalf("expected CopyObjectOp, got %T", op)
	}
	if cp.SrcBucket != "srccontainer" || cp.SrcKey != "srcobj" {
		t.Fatalf("unexpected copy source: bucket=%q key=%q", cp.SrcBucket, cp.SrcKey)
	}
	if e.Bucket != "dstcontainer" || e.Object != "dstobj" {
		t.Fatalf("unexpected copy destination: bucket=%q object=%q", e.Bucket, e.Object)
	}
	if !isCopy || isACLOp {
		t.Fatalf("expected isCopy=true isACLOp=false, got %v %v", isCopy, isACLOp)
	}
}

func TestSwiftDialectGetOpObjectPutDelete(t *testing.T) {
	d := &SwiftDialect{}

	e := newTestEnvelope("PUT", map[string]string{"content-length": "42"})
	op, _, _, err := d.GetOp(e, "v1/AUTH_test/c/o", nil, nil)
	if err != nil {
		t.Fatalf("put: GetOp: %v", err)
	}
	put, ok := op.(*ops.PutObjectOp)
	if !ok {
		t.Fatalf("expected PutObjectOp, got %T", op)
	}
	if put.ContentLen != 42 {
		t.Fatalf("ContentLen = %d, want 42", put.ContentLen)
	}

	e = newTestEnvelope("DELETE", nil)
	op, _, _, err = d.GetOp(e, "v1/AUTH_test/c/o", nil, nil)
	if err != nil {
		t.Fatalf("delete: GetOp: %v", err)
	}
	if _, ok := op.(*ops.DeleteObjectOp); !ok {
		t.Fatalf("expected DeleteObjectOp, got %T", op)
	}
}

func TestSwiftDialectAuthorizeRejectsMissingToken(t *testing.T) {
	d := &SwiftDialect{Tokens: nil}
	e := newTestEnvelope("GET", nil)
	if err := d.Authorize(e); err == nil {
		t.Fatal("expected error for missing X-Auth-Token")
	}
}
