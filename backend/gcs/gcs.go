// Package gcs adapts Google Cloud Storage to backend.Provider using the
// teacher's direct dependency, cloud.google.com/go/storage.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/NVIDIA/rgwcore/backend"
)

type Provider struct {
	cli *storage.Client
}

func New(ctx context.Context, opts ...option.ClientOption) (*Provider, error) {
	cli, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return &Provider{cli: cli}, nil
}

func (p *Provider) Name() string { return "gcs" }

func (p *Provider) CreateBucket(ctx context.Context, bucket string) error {
	return p.cli.Bucket(bucket).Create(ctx, "", nil)
}

func (p *Provider) DeleteBucket(ctx context.Context, bucket string) error {
	return p.cli.Bucket(bucket).Delete(ctx)
}

func (p *Provider) StatBucket(ctx context.Context, bucket string) (backend.BucketInfo, error) {
	attrs, err := p.cli.Bucket(bucket).Attrs(ctx)
	if err != nil {
		return backend.BucketInfo{}, err
	}
	return backend.BucketInfo{Name: bucket, CreationDate: attrs.Created}, nil
}

func (p *Provider) ListBuckets(ctx context.Context) ([]backend.BucketInfo, error) {
	return nil, backend.ErrUnsupported // GCS bucket listing requires a project ID the Provider interface doesn't carry
}

func (p *Provider) ListObjects(ctx context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (backend.ListResult, error) {
	it := p.cli.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: delimiter})
	res := backend.ListResult{}
	for len(res.Objects)+len(res.CommonPrefixes) < maxKeys {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return backend.ListResult{}, err
		}
		if attrs.Prefix != "" {
			res.CommonPrefixes = append(res.CommonPrefixes, attrs.Prefix)
			continue
		}
		if attrs.Name <= marker {
			continue
		}
		res.Objects = append(res.Objects, backend.ObjInfo{
			Key:          attrs.Name,
			Size:         attrs.Size,
			ETag:         attrs.Etag,
			LastModified: attrs.Updated,
			ContentType:  attrs.ContentType,
			UserMeta:     attrs.Metadata,
		})
	}
	return res, nil
}

func (p *Provider) StatObject(ctx context.Context, bucket, key string) (backend.ObjInfo, error) {
	attrs, err := p.cli.Bucket(bucket).Object(key).Attrs(ctx)
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return backend.ObjInfo{
		Key: key, Size: attrs.Size, ETag: attrs.Etag,
		LastModified: attrs.Updated, ContentType: attrs.ContentType, UserMeta: attrs.Metadata,
	}, nil
}

func (p *Provider) GetObject(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, backend.ObjInfo, error) {
	length := int64(-1)
	if rangeEnd > 0 {
		length = rangeEnd - rangeStart + 1
	}
	r, err := p.cli.Bucket(bucket).Object(key).NewRangeReader(ctx, rangeStart, length)
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	info := backend.ObjInfo{Key: key, Size: r.Attrs.Size, ETag: r.Attrs.Etag, ContentType: r.Attrs.ContentType}
	return r, info, nil
}

func (p *Provider) DeleteObject(ctx context.Context, bucket, key string) error {
	return p.cli.Bucket(bucket).Object(key).Delete(ctx)
}

func (p *Provider) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (backend.ObjInfo, error) {
	src := p.cli.Bucket(srcBucket).Object(srcKey)
	dst := p.cli.Bucket(dstBucket).Object(dstKey)
	attrs, err := dst.CopierFrom(src).Run(ctx)
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return backend.ObjInfo{Key: dstKey, Size: attrs.Size, ETag: attrs.Etag, LastModified: attrs.Updated}, nil
}

type writer struct {
	w *storage.Writer
}

func (p *Provider) OpenWriter(ctx context.Context, bucket, key string, meta map[string]string) (backend.Writer, error) {
	w := p.cli.Bucket(bucket).Object(key).NewWriter(ctx)
	w.Metadata = meta
	return &writer{w: w}, nil
}

func (w *writer) WriteChunk(_ context.Context, chunk []byte) error {
	_, err := w.w.Write(chunk)
	return err
}

func (w *writer) Commit(context.Context) (string, error) {
	if err := w.w.Close(); err != nil {
		return "", err
	}
	return w.w.Attrs().Etag, nil
}

func (w *writer) Abort(context.Context) error {
	return w.w.Close()
}
