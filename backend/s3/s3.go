// Package s3 adapts an AWS S3-compatible endpoint to backend.Provider
// using aws-sdk-go.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package s3

import (
	"bytes"
	"context"
	"io"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/NVIDIA/rgwcore/backend"
)

type Provider struct {
	cli      *s3.S3
	uploader *s3manager.Uploader
}

type Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
}

func New(cfg Config) (*Provider, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		S3ForcePathStyle: aws.Bool(cfg.ForcePathStyle),
	})
	if err != nil {
		return nil, err
	}
	return &Provider{cli: s3.New(sess), uploader: s3manager.NewUploader(sess)}, nil
}

func (p *Provider) Name() string { return "s3" }

func (p *Provider) CreateBucket(ctx context.Context, bucket string) error {
	_, err := p.cli.CreateBucketWithContext(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)})
	return err
}

func (p *Provider) DeleteBucket(ctx context.Context, bucket string) error {
	_, err := p.cli.DeleteBucketWithContext(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
	return err
}

func (p *Provider) StatBucket(ctx context.Context, bucket string) (backend.BucketInfo, error) {
	_, err := p.cli.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return backend.BucketInfo{}, err
	}
	return backend.BucketInfo{Name: bucket}, nil
}

func (p *Provider) ListBuckets(ctx context.Context) ([]backend.BucketInfo, error) {
	out, err := p.cli.ListBucketsWithContext(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, err
	}
	res := make([]backend.BucketInfo, 0, len(out.Buckets))
	for _, b := range out.Buckets {
		res = append(res, backend.BucketInfo{Name: aws.StringValue(b.Name), CreationDate: aws.TimeValue(b.CreationDate)})
	}
	return res, nil
}

func (p *Provider) ListObjects(ctx context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (backend.ListResult, error) {
	out, err := p.cli.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
		Bucket:     aws.String(bucket),
		Prefix:     aws.String(prefix),
		Delimiter:  aws.String(delimiter),
		StartAfter: aws.String(marker),
		MaxKeys:    aws.Int64(int64(maxKeys)),
	})
	if err != nil {
		return backend.ListResult{}, err
	}
	res := backend.ListResult{IsTruncated: aws.BoolValue(out.IsTruncated)}
	for _, o := range out.Contents {
		res.Objects = append(res.Objects, backend.ObjInfo{
			Key:          aws.StringValue(o.Key),
			Size:         aws.Int64Value(o.Size),
			ETag:         aws.StringValue(o.ETag),
			LastModified: aws.TimeValue(o.LastModified),
		})
	}
	for _, cp := range out.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, aws.StringValue(cp.Prefix))
	}
	if out.NextContinuationToken != nil {
		res.NextMarker = aws.StringValue(out.NextContinuationToken)
	}
	return res, nil
}

func (p *Provider) StatObject(ctx context.Context, bucket, key string) (backend.ObjInfo, error) {
	out, err := p.cli.HeadObjectWithContext(ctx, &s3.HeadObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return backend.ObjInfo{
		Key:          key,
		Size:         aws.Int64Value(out.ContentLength),
		ETag:         aws.StringValue(out.ETag),
		LastModified: aws.TimeValue(out.LastModified),
		ContentType:  aws.StringValue(out.ContentType),
		UserMeta:     aws.StringValueMap(out.Metadata),
	}, nil
}

func (p *Provider) GetObject(ctx context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, backend.ObjInfo, error) {
	in := &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)}
	if rangeEnd > 0 {
		in.Range = aws.String(httpRange(rangeStart, rangeEnd))
	}
	out, err := p.cli.GetObjectWithContext(ctx, in)
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	info := backend.ObjInfo{
		Key:          key,
		Size:         aws.Int64Value(out.ContentLength),
		ETag:         aws.StringValue(out.ETag),
		LastModified: aws.TimeValue(out.LastModified),
		ContentType:  aws.StringValue(out.ContentType),
		UserMeta:     aws.StringValueMap(out.Metadata),
	}
	return out.Body, info, nil
}

func (p *Provider) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := p.cli.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	return err
}

func (p *Provider) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (backend.ObjInfo, error) {
	_, err := p.cli.CopyObjectWithContext(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(srcBucket + "/" + srcKey),
	})
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return p.StatObject(ctx, dstBucket, dstKey)
}

// OpenWriter buffers the full body in memory and uploads via s3manager on
// Commit - simple, at the cost of holding the whole object in memory and
// not streaming directly to the wire.
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
	meta := make(map[string]*string, len(w.meta))
	for k, v := range w.meta {
		meta[k] = aws.String(v)
	}
	out, err := w.p.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:   aws.String(w.bucket),
		Key:      aws.String(w.key),
		Body:     bytes.NewReader(w.buf.Bytes()),
		Metadata: meta,
	})
	if err != nil {
		return "", err
	}
	return aws.StringValue(out.ETag), nil
}

func (w *writer) Abort(context.Context) error {
	w.buf.Reset()
	return nil
}

func httpRange(start, end int64) string {
	return "bytes=" + strconv.FormatInt(start, 10) + "-" + strconv.FormatInt(end, 10)
}
