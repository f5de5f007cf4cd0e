// Package swiftcompat carries the Swift JSON wire types exchanged with
// clients - container listing, account listing, and the /auth/ token
// response - in the style of s3compat's XML types but for Swift's plain
// JSON array-of-objects container/account listing format.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package swiftcompat

import (
	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/render"
)

// ObjEntry is one row of a Swift container listing.
type ObjEntry struct {
	Name         string `json:"name"`
	Hash         string `json:"hash"`
	Bytes        int64  `json:"bytes"`
	ContentType  string `json:"content_type"`
	LastModified string `json:"last_modified"`
}

// Subdir is one common-prefix row of a delimiter-grouped listing.
type Subdir struct {
	Subdir string `json:"subdir"`
}

func FromListResult(res backend.ListResult) []interface{} {
	out := make([]interface{}, 0, len(res.Objects)+len(res.CommonPrefixes))
	for _, o := range res.Objects {
		out = append(out, ObjEntry{
			Name:         o.Key,
			Hash:         o.ETag,
			Bytes:        o.Size,
			ContentType:  o.ContentType,
			LastModified: render.FormatHTTPTime(o.LastModified),
		})
	}
	for _, p := range res.CommonPrefixes {
		out = append(out, Subdir{Subdir: p})
	}
	return out
}

// ContainerEntry is one row of an account (container) listing.
type ContainerEntry struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
	Bytes int64  `json:"bytes"`
}

func FromBucketList(buckets []backend.BucketInfo) []ContainerEntry {
	out := make([]ContainerEntry, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, ContainerEntry{Name: b.Name})
	}
	return out
}

// AuthResponse is a JSON form of the /auth/ token response. The /auth/
// sub-dialect does not write it: like Swift's TempAuth, it returns the
// token in the X-Auth-Token header with an empty body.
type AuthResponse struct {
	Token      string `json:"token"`
	StorageURL string `json:"storage_url"`
}
