// sigv2.go verifies AWS Signature Version 2 as RGW's S3 dialect expects:
// HMAC-SHA1 over a canonicalized string-to-sign, using the account's
// secret access key. This is an exact wire-format match, not a generic
// "compute an HMAC" concern, so it stays on stdlib crypto rather than
// reaching for a signing library tuned to SigV4.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package authn

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// CanonicalRequest carries the fields SigV2's string-to-sign is built
// from: "<Method>\n<Content-MD5>\n<Content-Type>\n<Date>\n<CanonicalizedAmzHeaders><CanonicalizedResource>".
type CanonicalRequest struct {
	Method       string
	ContentMD5   string
	ContentType  string
	Date         string
	AmzHeaders   map[string]string // already-lowercased x-amz-* header names
	Resource     string            // canonicalized resource, e.g. "/bucket/key"
}

func canonicalizeAmzHeaders(h map[string]string) string {
	if len(h) == 0 {
		return ""
	}
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%s\n", k, h[k])
	}
	return b.String()
}

func stringToSign(r CanonicalRequest) string {
	return r.Method + "\n" +
		r.ContentMD5 + "\n" +
		r.ContentType + "\n" +
		r.Date + "\n" +
		canonicalizeAmzHeaders(r.AmzHeaders) +
		r.Resource
}

// SignV2 computes the base64 HMAC-SHA1 signature for r using secretKey.
func SignV2(secretKey string, r CanonicalRequest) string {
	mac := hmac.New(sha1.New, []byte(secretKey))
	mac.Write([]byte(stringToSign(r)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifyV2 checks that providedSignature matches the signature this
// module computes for r with secretKey, in constant time.
func VerifyV2(secretKey string, r CanonicalRequest, providedSignature string) bool {
	want := SignV2(secretKey, r)
	return subtle.ConstantTimeCompare([]byte(want), []byte(providedSignature)) == 1
}

// ParseAuthorizationHeader splits an S3 "AWS <accessKeyID>:<signature>"
// Authorization header into its two components.
func ParseAuthorizationHeader(header string) (accessKeyID, signature string, ok bool) {
	const prefix = "AWS "
	if !strings.HasPrefix(header, prefix) {
		return "", "", false
	}
	rest := header[len(prefix):]
	idx := strings.LastIndexByte(rest, ':')
	if idx < 0 {
		return "", "", false
	}
	return rest[:idx], rest[idx+1:], true
}
