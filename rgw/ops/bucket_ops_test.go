package ops

import (
	"context"
	"testing"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/backend/localfs"
	"github.com/NVIDIA/rgwcore/envelope"
)

func putTestObject(t *testing.T, p *localfs.Provider, bucket, key string) {
	t.Helper()
	w, err := p.OpenWriter(context.Background(), bucket, key, nil)
	if err != nil {
		t.Fatalf("OpenWriter(%s): %v", key, err)
	}
	if err := w.WriteChunk(context.Background(), []byte("data")); err != nil {
		t.Fatalf("WriteChunk(%s): %v", key, err)
	}
	if _, err := w.Commit(context.Background()); err != nil {
		t.Fatalf("Commit(%s): %v", key, err)
	}
}

func TestListBucketOpFiltersPseudoObjects(t *testing.T) {
	p, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	ctx := context.Background()
	if err := p.CreateBucket(ctx, "b"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}

	putTestObject(t, p, "b", "photo.jpg")
	putTestObject(t, p, "b", "photo.jpg.acl")
	putTestObject(t, p, "b", "photo.jpg.upload123.meta")
	putTestObject(t, p, "b", "photo.jpg.upload123.1")
	putTestObject(t, p, "b", "notes.txt")

	e := &envelope.Envelope{Bucket: "b", PermMode: envelope.PermBoth}
	op := &ListBucketOp{}
	if err := op.VerifyParams(e); err != nil {
		t.Fatalf("VerifyParams: %v", err)
	}
	if err := op.Execute(ctx, e, p); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got := map[string]bool{}
	for _, o := range op.Result.Objects {
		got[o.Key] = true
	}
	if !got["photo.jpg"] || !got["notes.txt"] {
		t.Fatalf("expected real objects to survive filtering, got %v", got)
	}
	if got["photo.jpg.acl"] || got["photo.jpg.upload123.meta"] || got["photo.jpg.upload123.1"] {
		t.Fatalf("pseudo-objects leaked into listing: %v", got)
	}
	if len(op.Result.Objects) != 2 {
		t.Fatalf("expected exactly 2 real objects, got %d: %v", len(op.Result.Objects), got)
	}
}

func TestListBucketMultipartsOpDefaultMaxOrdering(t *testing.T) {
	// Regression test for the default_max/max_uploads initialization-order
	// bug: NewListBucketMultipartsOp must set DefaultMax before anything
	// ever reads MaxUploads, so an unspecified MaxUploads falls back to the
	// real default instead of being silently capped at zero.
	op := NewListBucketMultipartsOp()
	e := &envelope.Envelope{PermMode: envelope.PermBoth}

	if op.DefaultMax != 1000 {
		t.Fatalf("DefaultMax = %d, want 1000 before VerifyParams runs", op.DefaultMax)
	}

	if err := op.VerifyParams(e); err != nil {
		t.Fatalf("VerifyParams: %v", err)
	}
	if op.MaxUploads != 1000 {
		t.Fatalf("MaxUploads = %d, want 1000 (defaulted from DefaultMax)", op.MaxUploads)
	}
}

func TestListBucketMultipartsOpRespectsExplicitMaxUploads(t *testing.T) {
	op := NewListBucketMultipartsOp()
	op.MaxUploads = 5
	if err := op.VerifyParams(&envelope.Envelope{}); err != nil {
		t.Fatalf("VerifyParams: %v", err)
	}
	if op.MaxUploads != 5 {
		t.Fatalf("MaxUploads = %d, want explicit value 5 preserved", op.MaxUploads)
	}
}

func TestListBucketMultipartsOpLists(t *testing.T) {
	p, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	ctx := context.Background()
	if err := p.CreateBucket(ctx, "b"); err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	putTestObject(t, p, "b", "big.bin.upload1.meta")
	putTestObject(t, p, "b", "big.bin.upload1.1")
	putTestObject(t, p, "b", "finished.bin")

	op := NewListBucketMultipartsOp()
	if err := op.VerifyParams(&envelope.Envelope{}); err != nil {
		t.Fatalf("VerifyParams: %v", err)
	}
	if err := op.Execute(ctx, &envelope.Envelope{Bucket: "b"}, p); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(op.Uploads) != 1 {
		t.Fatalf("expected exactly one in-progress upload, got %d: %+v", len(op.Uploads), op.Uploads)
	}
	if op.Uploads[0].Key() != "big.bin" || op.Uploads[0].UploadID() != "upload1" {
		t.Fatalf("unexpected MPObj: key=%q uploadID=%q", op.Uploads[0].Key(), op.Uploads[0].UploadID())
	}
}

var _ backend.Provider = (*localfs.Provider)(nil)
