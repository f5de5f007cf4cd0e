// Package backend defines the pluggable storage-provider boundary that
// stands in for RADOS in this core: operations never import a vendor SDK
// directly, they call through Provider. Grounded on cluster.BackendProvider
// as exercised by ais/backend/{ais,http}.go.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package backend

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned by a Provider method that a given backend
// genuinely cannot implement (e.g. GCS bucket listing needs a project ID
// this interface doesn't carry).
var ErrUnsupported = errors.New("backend: operation not supported by this provider")

// ObjHandle is the opaque per-object context handle type - mirrors
// s->obj_ctx / rgwstore->create_context(s) in rgw_main.cc. No Provider
// method takes or returns it.
type ObjHandle interface{}

// ObjInfo describes an object's metadata as returned by Stat/List.
type ObjInfo struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
	ContentType  string
	UserMeta     map[string]string
}

// BucketInfo describes a bucket/container as returned by StatBucket/List.
type BucketInfo struct {
	Name         string
	CreationDate time.Time
}

// ListResult is one page of a bucket listing.
type ListResult struct {
	Objects        []ObjInfo
	CommonPrefixes []string
	IsTruncated    bool
	NextMarker     string
}

// Writer is the streaming-put handle returned by OpenWriter, mirroring
// RGWPutObjProcessor's prepare/handle_data/throttle_data/complete
// contract: WriteChunk plays handle_data+throttle_data's role (accept a
// chunk, apply backpressure), Commit plays complete's role (finalize and
// return the resulting ETag).
type Writer interface {
	WriteChunk(ctx context.Context, chunk []byte) error
	Commit(ctx context.Context) (etag string, err error)
	Abort(ctx context.Context) error
}

// Provider is the storage backend boundary. Every method is safe for
// concurrent use across objects; behavior for concurrent calls on the same
// key is backend-defined (localfs locks only around bucket create, delete
// and list; each object write goes to a temp file renamed into place on
// Commit).
type Provider interface {
	Name() string

	CreateBucket(ctx context.Context, bucket string) error
	DeleteBucket(ctx context.Context, bucket string) error
	StatBucket(ctx context.Context, bucket string) (BucketInfo, error)
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	ListObjects(ctx context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (ListResult, error)

	StatObject(ctx context.Context, bucket, key string) (ObjInfo, error)
	GetObject(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, ObjInfo, error)
	DeleteObject(ctx context.Context, bucket, key string) error
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (ObjInfo, error)

	// OpenWriter begins a streaming put of bucket/key with the given
	// user metadata; the caller drives WriteChunk/Commit/Abort.
	OpenWriter(ctx context.Context, bucket, key string, meta map[string]string) (Writer, error)
}
