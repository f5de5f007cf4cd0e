// Package router implements the REST Router (C4): longest-prefix URI
// dispatch over dialect-registered resource managers, grounded on
// rgw_rest.h/rgw_rest.cc's RGWRESTMgr tree.
//
// path.go carries the URL-path-builder idiom from cmn/urlpaths.go: a Path
// is a slice of words plus its precomputed joined string, even though
// (unlike cmn/urlpaths.go's all-static const paths) this router also
// needs dynamic prefix registration.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package router

import "strings"

// Path mirrors cmn/urlpaths.go's URLPath{L,S}: L is the path split into
// words, S is the precomputed "/"-joined string.
type Path struct {
	L []string
	S string
}

// NewPath builds a Path from words, mirroring urlpath(words...) in
// cmn/urlpaths.go.
func NewPath(words ...string) Path {
	return Path{L: words, S: "/" + strings.Join(words, "/")}
}

// ParsePath splits a raw request path into a Path, dropping empty leading
// segments from the leading slash.
func ParsePath(raw string) Path {
	raw = strings.TrimPrefix(raw, "/")
	if raw == "" {
		return Path{}
	}
	words := strings.Split(raw, "/")
	return Path{L: words, S: "/" + raw}
}

// Predefined top-level dialect prefixes, mirroring cmn/urlpaths.go's
// URLPath* const-var style for well-known paths.
var (
	PathSwift = NewPath("swift")
	PathAuth  = NewPath("auth")
)
