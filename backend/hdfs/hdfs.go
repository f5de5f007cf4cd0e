// Package hdfs adapts an HDFS namenode/datanode cluster to backend.Provider
// using colinmarc/hdfs/v2. Buckets map to
// a top-level directory per bucket under a configured root path, mirroring
// localfs's layout but over the HDFS client instead of the local
// filesystem.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package hdfs

import (
	"context"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	hdfsclient "github.com/colinmarc/hdfs/v2"

	"github.com/NVIDIA/rgwcore/backend"
)

type Provider struct {
	cli  *hdfsclient.Client
	root string
}

func New(namenode, root string) (*Provider, error) {
	cli, err := hdfsclient.New(namenode)
	if err != nil {
		return nil, err
	}
	if err := cli.MkdirAll(root, 0o755); err != nil && !os.IsExist(err) {
		return nil, err
	}
	return &Provider{cli: cli, root: root}, nil
}

func (p *Provider) Name() string { return "hdfs" }

func (p *Provider) bucketDir(bucket string) string { return path.Join(p.root, bucket) }
func (p *Provider) objPath(bucket, key string) string {
	return path.Join(p.bucketDir(bucket), key)
}

func (p *Provider) CreateBucket(_ context.Context, bucket string) error {
	if _, err := p.cli.Stat(p.bucketDir(bucket)); err == nil {
		return os.ErrExist
	}
	return p.cli.MkdirAll(p.bucketDir(bucket), 0o755)
}

func (p *Provider) DeleteBucket(_ context.Context, bucket string) error {
	entries, err := p.cli.ReadDir(p.bucketDir(bucket))
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return os.ErrExist
	}
	return p.cli.Remove(p.bucketDir(bucket))
}

func (p *Provider) StatBucket(_ context.Context, bucket string) (backend.BucketInfo, error) {
	fi, err := p.cli.Stat(p.bucketDir(bucket))
	if err != nil {
		return backend.BucketInfo{}, err
	}
	return backend.BucketInfo{Name: bucket, CreationDate: fi.ModTime()}, nil
}

func (p *Provider) ListBuckets(_ context.Context) ([]backend.BucketInfo, error) {
	entries, err := p.cli.ReadDir(p.root)
	if err != nil {
		return nil, err
	}
	var out []backend.BucketInfo
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, backend.BucketInfo{Name: e.Name(), CreationDate: e.ModTime()})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *Provider) ListObjects(_ context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (backend.ListResult, error) {
	entries, err := p.cli.ReadDir(p.bucketDir(bucket))
	if err != nil {
		return backend.ListResult{}, err
	}
	res := backend.ListResult{}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		key := e.Name()
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if marker != "" && key <= marker {
			continue
		}
		if count >= maxKeys {
			res.IsTruncated = true
			res.NextMarker = key
			break
		}
		res.Objects = append(res.Objects, backend.ObjInfo{Key: key, Size: e.Size(), LastModified: e.ModTime()})
		count++
	}
	return res, nil
}

func (p *Provider) StatObject(_ context.Context, bucket, key string) (backend.ObjInfo, error) {
	fi, err := p.cli.Stat(p.objPath(bucket, key))
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return backend.ObjInfo{Key: key, Size: fi.Size(), LastModified: fi.ModTime()}, nil
}

func (p *Provider) GetObject(_ context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, backend.ObjInfo, error) {
	info, err := p.StatObject(context.Background(), bucket, key)
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	f, err := p.cli.Open(p.objPath(bucket, key))
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	if rangeStart > 0 {
		if _, err := f.Seek(rangeStart, io.SeekStart); err != nil {
			f.Close()
			return nil, backend.ObjInfo{}, err
		}
	}
	if rangeEnd > 0 && rangeEnd >= rangeStart {
		return struct {
			io.Reader
			io.Closer
		}{io.LimitReader(f, rangeEnd-rangeStart+1), f}, info, nil
	}
	return f, info, nil
}

func (p *Provider) DeleteObject(_ context.Context, bucket, key string) error {
	return p.cli.Remove(p.objPath(bucket, key))
}

func (p *Provider) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) (backend.ObjInfo, error) {
	src, err := p.cli.Open(p.objPath(srcBucket, srcKey))
	if err != nil {
		return backend.ObjInfo{}, err
	}
	defer src.Close()
	w, err := p.cli.Create(p.objPath(dstBucket, dstKey))
	if err != nil {
		return backend.ObjInfo{}, err
	}
	if _, err := io.Copy(w, src); err != nil {
		w.Close()
		return backend.ObjInfo{}, err
	}
	if err := w.Close(); err != nil {
		return backend.ObjInfo{}, err
	}
	return p.StatObject(ctx, dstBucket, dstKey)
}

type writer struct {
	p      *Provider
	bucket string
	key    string
	w      *hdfsclient.FileWriter
}

func (p *Provider) OpenWriter(_ context.Context, bucket, key string, _ map[string]string) (backend.Writer, error) {
	if err := p.cli.MkdirAll(path.Dir(p.objPath(bucket, key)), 0o755); err != nil {
		return nil, err
	}
	w, err := p.cli.Create(p.objPath(bucket, key))
	if err != nil {
		return nil, err
	}
	return &writer{p: p, bucket: bucket, key: key, w: w}, nil
}

func (w *writer) WriteChunk(_ context.Context, chunk []byte) error {
	_, err := w.w.Write(chunk)
	return err
}

func (w *writer) Commit(context.Context) (string, error) {
	return "", w.w.Close()
}

func (w *writer) Abort(context.Context) error {
	return w.w.Close()
}
