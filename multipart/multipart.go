// Package multipart implements the RGWMPObj multipart-upload naming
// grammar: the on-backend object name that stands in for an in-progress
// multipart upload, and its meta/part variants.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package multipart

import (
	"strconv"
	"strings"
)

// metaSuffix mirrors rgw_op.h's MP_META_SUFFIX.
const metaSuffix = ".meta"

// MPObj names the pseudo-object backing one multipart upload: all state for
// upload uploadID on key is stored under Meta(), and each uploaded part n
// under Part(n).
type MPObj struct {
	key      string
	uploadID string
}

// New builds an MPObj for a fresh upload. uploadID should already be
// globally unique (caller's responsibility - mirrors RGWMPObj::init).
func New(key, uploadID string) MPObj {
	return MPObj{key: key, uploadID: uploadID}
}

func (m MPObj) Key() string      { return m.key }
func (m MPObj) UploadID() string { return m.uploadID }

// Meta returns the backend object name for this upload's metadata entry:
// "<key>.<uploadID>.meta".
func (m MPObj) Meta() string {
	return m.key + "." + m.uploadID + metaSuffix
}

// Part returns the backend object name for part number n of this upload:
// "<key>.<uploadID>.<n>".
func (m MPObj) Part(n int) string {
	return m.key + "." + m.uploadID + "." + strconv.Itoa(n)
}

// IsPart reports whether name looks like a part pseudo-object
// ("<key>.<uploadID>.<n>") produced by Part(). It mirrors ParseMeta's
// last-two-dot-components convention: the final component must parse as a
// non-negative part number and the component before it (the upload id) must
// be non-empty.
func IsPart(name string) bool {
	lastDot := strings.LastIndexByte(name, '.')
	if lastDot < 0 {
		return false
	}
	suffix := name[lastDot+1:]
	if suffix == "" {
		return false
	}
	if n, err := strconv.Atoi(suffix); err != nil || n < 0 {
		return false
	}
	rest := name[:lastDot]
	prevDot := strings.LastIndexByte(rest, '.')
	if prevDot < 0 {
		return false
	}
	return rest[prevDot+1:] != ""
}

// ParseMeta recovers (key, uploadID) from a meta-object name produced by
// Meta(). It mirrors RGWMPObj::from_meta exactly: the split point is the
// LAST two '.' separators, not the first two, because key itself may
// legitimately contain dots. Returns ok=false if name doesn't end in
// metaSuffix or doesn't have two further dot-delimited components before
// it.
func ParseMeta(name string) (key, uploadID string, ok bool) {
	if !strings.HasSuffix(name, metaSuffix) {
		return "", "", false
	}
	trimmed := strings.TrimSuffix(name, metaSuffix)

	lastDot := strings.LastIndexByte(trimmed, '.')
	if lastDot < 0 {
		return "", "", false
	}
	key = trimmed[:lastDot]
	uploadID = trimmed[lastDot+1:]
	if key == "" || uploadID == "" {
		return "", "", false
	}
	return key, uploadID, true
}
