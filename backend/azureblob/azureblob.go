// Package azureblob adapts Azure Blob Storage to backend.Provider using
// Azure/azure-storage-blob-go.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package azureblob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"github.com/NVIDIA/rgwcore/backend"
)

type Provider struct {
	svc azblob.ServiceURL
}

func New(accountName, accountKey string) (*Provider, error) {
	cred, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}
	pipeline := azblob.NewPipeline(cred, azblob.PipelineOptions{})
	u, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net/", accountName))
	if err != nil {
		return nil, err
	}
	return &Provider{svc: azblob.NewServiceURL(*u, pipeline)}, nil
}

func (p *Provider) Name() string { return "azureblob" }

func (p *Provider) containerURL(bucket string) azblob.ContainerURL {
	return p.svc.NewContainerURL(bucket)
}

func (p *Provider) CreateBucket(ctx context.Context, bucket string) error {
	_, err := p.containerURL(bucket).Create(ctx, azblob.Metadata{}, azblob.PublicAccessNone)
	return err
}

func (p *Provider) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := p.containerURL(bucket).Delete(ctx, azblob.ContainerAccessConditions{})
	return err
}

func (p *Provider) StatBucket(ctx context.Context, bucket string) (backend.BucketInfo, error) {
	props, err := p.containerURL(bucket).GetProperties(ctx, azblob.LeaseAccessConditions{})
	if err != nil {
		return backend.BucketInfo{}, err
	}
	return backend.BucketInfo{Name: bucket, CreationDate: props.LastModified()}, nil
}

func (p *Provider) ListBuckets(ctx context.Context) ([]backend.BucketInfo, error) {
	var res []backend.BucketInfo
	marker := azblob.Marker{}
	for marker.NotDone() {
		resp, err := p.svc.ListContainersSegment(ctx, marker, azblob.ListContainersSegmentOptions{})
		if err != nil {
			return nil, err
		}
		for _, c := range resp.ContainerItems {
			res = append(res, backend.BucketInfo{Name: c.Name, CreationDate: c.Properties.LastModified})
		}
		marker = resp.NextMarker
	}
	return res, nil
}

func (p *Provider) ListObjects(ctx context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (backend.ListResult, error) {
	m := azblob.Marker{}
	if marker != "" {
		m.Val = &marker
	}
	resp, err := p.containerURL(bucket).ListBlobsHierarchySegment(ctx, m, delimiter, azblob.ListBlobsSegmentOptions{
		Prefix:     prefix,
		MaxResults: int32(maxKeys),
	})
	if err != nil {
		return backend.ListResult{}, err
	}
	res := backend.ListResult{}
	for _, b := range resp.Segment.BlobItems {
		res.Objects = append(res.Objects, backend.ObjInfo{
			Key:          b.Name,
			Size:         *b.Properties.ContentLength,
			ETag:         string(b.Properties.Etag),
			LastModified: b.Properties.LastModified,
		})
	}
	for _, bp := range resp.Segment.BlobPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, bp.Name)
	}
	if resp.NextMarker.NotDone() {
		res.IsTruncated = true
		res.NextMarker = *resp.NextMarker.Val
	}
	return res, nil
}

func (p *Provider) blobURL(bucket, key string) azblob.BlockBlobURL {
	return p.containerURL(bucket).NewBlockBlobURL(key)
}

func (p *Provider) StatObject(ctx context.Context, bucket, key string) (backend.ObjInfo, error) {
	props, err := p.blobURL(bucket, key).GetProperties(ctx, azblob.BlobAccessConditions{}, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return backend.ObjInfo{
		Key:          key,
		Size:         props.ContentLength(),
		ETag:         string(props.ETag()),
		LastModified: props.LastModified(),
		ContentType:  props.ContentType(),
		UserMeta:     props.NewMetadata(),
	}, nil
}

func (p *Provider) GetObject(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, backend.ObjInfo, error) {
	count := int64(azblob.CountToEnd)
	if rangeEnd > 0 {
		count = rangeEnd - rangeStart + 1
	}
	resp, err := p.blobURL(bucket, key).Download(ctx, rangeStart, count, azblob.BlobAccessConditions{}, false, azblob.ClientProvidedKeyOptions{})
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	info := backend.ObjInfo{
		Key:          key,
		Size:         resp.ContentLength(),
		ETag:         string(resp.ETag()),
		LastModified: resp.LastModified(),
		ContentType:  resp.ContentType(),
	}
	return resp.Body(azblob.RetryReaderOptions{}), info, nil
}

func (p *Provider) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := p.blobURL(bucket, key).Delete(ctx, azblob.DeleteSnapshotsOptionNone, azblob.BlobAccessConditions{})
	return err
}

func (p *Provider) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (backend.ObjInfo, error) {
	src := p.blobURL(srcBucket, srcKey).URL()
	_, err := p.blobURL(dstBucket, dstKey).StartCopyFromURL(ctx, src, azblob.Metadata{}, azblob.ModifiedAccessConditions{}, azblob.BlobAccessConditions{}, azblob.DefaultAccessTier, nil)
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return p.StatObject(ctx, dstBucket, dstKey)
}

type writer struct {
	p      *Provider
	bucket string
	key    string
	meta   map[string]string
	buf    bytes.Buffer
}

func (p *Provider) OpenWriter(_ context.Context, bucket, key string, meta map[string]string) (backend.Writer, error) {
	return &writer{p: p, bucket: bucket, key: key, meta: meta}, nil
}

func (w *writer) WriteChunk(_ context.Context, chunk []byte) error {
	_, err := w.buf.Write(chunk)
	return err
}

func (w *writer) Commit(ctx context.Context) (string, error) {
	md := azblob.Metadata{}
	for k, v := range w.meta {
		md[k] = v
	}
	resp, err := azblob.UploadBufferToBlockBlob(ctx, w.buf.Bytes(), w.p.blobURL(w.bucket, w.key), azblob.UploadToBlockBlobOptions{Metadata: md})
	if err != nil {
		return "", err
	}
	return string(resp.ETag()), nil
}

func (w *writer) Abort(context.Context) error {
	w.buf.Reset()
	return nil
}
