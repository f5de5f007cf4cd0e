// Package localfs is the default backend.Provider: an on-disk reference
// implementation storing each bucket as a directory and each object as a
// file, with per-object user metadata kept as a JSON sidecar. Grounded on
// aistore's FQN scheme (fs/content.go) for the idea of deriving on-disk
// paths from bucket+key, though the root-per-bucket layout here is
// simplified (no EC/workfile content types - this provider has exactly one
// content type).
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package localfs

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"hash"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/karrick/godirwalk"

	"github.com/NVIDIA/rgwcore/backend"
)

type Provider struct {
	root string
	mu   sync.RWMutex // guards concurrent bucket create/delete against ListBuckets
}

func New(root string) (*Provider, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Provider{root: root}, nil
}

func (p *Provider) Name() string { return "localfs" }

func (p *Provider) bucketDir(bucket string) string { return filepath.Join(p.root, bucket) }

func (p *Provider) objPath(bucket, key string) string {
	return filepath.Join(p.bucketDir(bucket), filepath.FromSlash(key))
}

func (p *Provider) metaPath(bucket, key string) string {
	return p.objPath(bucket, key) + ".meta.json"
}

func (p *Provider) CreateBucket(_ context.Context, bucket string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	dir := p.bucketDir(bucket)
	if _, err := os.Stat(dir); err == nil {
		return os.ErrExist
	}
	return os.MkdirAll(dir, 0o755)
}

func (p *Provider) DeleteBucket(_ context.Context, bucket string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	dir := p.bucketDir(bucket)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return os.ErrExist // caller maps to CodeBucketNotEmpty
	}
	return os.Remove(dir)
}

func (p *Provider) StatBucket(_ context.Context, bucket string) (backend.BucketInfo, error) {
	fi, err := os.Stat(p.bucketDir(bucket))
	if err != nil {
		return backend.BucketInfo{}, err
	}
	return backend.BucketInfo{Name: bucket, CreationDate: fi.ModTime()}, nil
}

func (p *Provider) ListBuckets(_ context.Context) ([]backend.BucketInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	entries, err := os.ReadDir(p.root)
	if err != nil {
		return nil, err
	}
	out := make([]backend.BucketInfo, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, backend.BucketInfo{Name: e.Name(), CreationDate: fi.ModTime()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ListObjects walks the bucket directory with godirwalk (teacher's direct
// dependency for fast directory traversal) and applies prefix/delimiter
// filtering and marker-based pagination in memory.
func (p *Provider) ListObjects(_ context.Context, bucket, prefix, delimiter, marker string, maxKeys int) (backend.ListResult, error) {
	dir := p.bucketDir(bucket)
	var keys []string
	err := godirwalk.Walk(dir, &godirwalk.Options{
		Unsorted: true,
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() || strings.HasSuffix(path, ".meta.json") {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			keys = append(keys, filepath.ToSlash(rel))
			return nil
		},
	})
	if err != nil {
		return backend.ListResult{}, err
	}
	sort.Strings(keys)

	seenPrefixes := make(map[string]struct{})
	result := backend.ListResult{}
	count := 0
	for _, key := range keys {
		if prefix != "" && !strings.HasPrefix(key, prefix) {
			continue
		}
		if marker != "" && key <= marker {
			continue
		}
		if delimiter != "" {
			rest := key[len(prefix):]
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+len(delimiter)]
				if _, ok := seenPrefixes[cp]; !ok {
					seenPrefixes[cp] = struct{}{}
					result.CommonPrefixes = append(result.CommonPrefixes, cp)
					count++
				}
				continue
			}
		}
		if count >= maxKeys {
			result.IsTruncated = true
			result.NextMarker = key
			break
		}
		info, err := p.statFile(bucket, key)
		if err != nil {
			continue
		}
		result.Objects = append(result.Objects, info)
		count++
	}
	sort.Strings(result.CommonPrefixes)
	return result, nil
}

func (p *Provider) statFile(bucket, key string) (backend.ObjInfo, error) {
	fi, err := os.Stat(p.objPath(bucket, key))
	if err != nil {
		return backend.ObjInfo{}, err
	}
	info := backend.ObjInfo{
		Key:          key,
		Size:         fi.Size(),
		LastModified: fi.ModTime(),
	}
	if meta, err := p.loadMeta(bucket, key); err == nil {
		info.ETag = meta.ETag
		info.ContentType = meta.ContentType
		info.UserMeta = meta.UserMeta
	}
	return info, nil
}

func (p *Provider) StatObject(_ context.Context, bucket, key string) (backend.ObjInfo, error) {
	return p.statFile(bucket, key)
}

func (p *Provider) GetObject(_ context.Context, bucket, key string, rangeStart, rangeEnd int64) (io.ReadCloser, backend.ObjInfo, error) {
	info, err := p.statFile(bucket, key)
	if err != nil {
		return nil, backend.ObjInfo{}, err
	}
	f, err := os.Open(p.objPath(bucket, key))
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
		return limitedReadCloser{f, io.LimitReader(f, rangeEnd-rangeStart+1)}, info, nil
	}
	return f, info, nil
}

type limitedReadCloser struct {
	io.Closer
	io.Reader
}

func (p *Provider) DeleteObject(_ context.Context, bucket, key string) error {
	os.Remove(p.metaPath(bucket, key))
	return os.Remove(p.objPath(bucket, key))
}

func (p *Provider) CopyObject(_ context.Context, srcBucket, srcKey, dstBucket, dstKey string) (backend.ObjInfo, error) {
	src, err := os.Open(p.objPath(srcBucket, srcKey))
	if err != nil {
		return backend.ObjInfo{}, err
	}
	defer src.Close()

	meta, _ := p.loadMeta(srcBucket, srcKey)
	w, err := p.OpenWriter(context.Background(), dstBucket, dstKey, meta.UserMeta)
	if err != nil {
		return backend.ObjInfo{}, err
	}
	buf := make([]byte, 64*1024)
	for {
		n, rerr := src.Read(buf)
		if n > 0 {
			if werr := w.WriteChunk(context.Background(), buf[:n]); werr != nil {
				w.Abort(context.Background())
				return backend.ObjInfo{}, werr
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			w.Abort(context.Background())
			return backend.ObjInfo{}, rerr
		}
	}
	etag, err := w.Commit(context.Background())
	if err != nil {
		return backend.ObjInfo{}, err
	}
	return p.statFileWithETag(dstBucket, dstKey, etag)
}

func (p *Provider) statFileWithETag(bucket, key, etag string) (backend.ObjInfo, error) {
	info, err := p.statFile(bucket, key)
	if err != nil {
		return info, err
	}
	info.ETag = etag
	return info, nil
}

type objMeta struct {
	ETag        string            `json:"etag"`
	ContentType string            `json:"content_type"`
	UserMeta    map[string]string `json:"user_meta"`
}

func (p *Provider) loadMeta(bucket, key string) (objMeta, error) {
	var m objMeta
	b, err := os.ReadFile(p.metaPath(bucket, key))
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(b, &m)
	return m, err
}

func (p *Provider) saveMeta(bucket, key string, m objMeta) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(p.metaPath(bucket, key), b, 0o644)
}

type writer struct {
	p      *Provider
	bucket string
	key    string
	meta   map[string]string
	tmp    *os.File
	h      hash.Hash
}

func (p *Provider) OpenWriter(_ context.Context, bucket, key string, meta map[string]string) (backend.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(p.objPath(bucket, key)), 0o755); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(p.bucketDir(bucket), ".put-*")
	if err != nil {
		return nil, err
	}
	return &writer{p: p, bucket: bucket, key: key, meta: meta, tmp: tmp, h: md5.New()}, nil
}

func (w *writer) WriteChunk(_ context.Context, chunk []byte) error {
	if _, err := w.tmp.Write(chunk); err != nil {
		return err
	}
	_, err := w.h.Write(chunk)
	return err
}

func (w *writer) Commit(_ context.Context) (string, error) {
	if err := w.tmp.Close(); err != nil {
		return "", err
	}
	dst := w.p.objPath(w.bucket, w.key)
	if err := os.Rename(w.tmp.Name(), dst); err != nil {
		return "", err
	}
	etag := hex.EncodeToString(w.h.Sum(nil))
	w.p.saveMeta(w.bucket, w.key, objMeta{ETag: etag, UserMeta: w.meta})
	return etag, nil
}

func (w *writer) Abort(context.Context) error {
	w.tmp.Close()
	return os.Remove(w.tmp.Name())
}
