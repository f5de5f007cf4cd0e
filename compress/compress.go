// Package compress implements optional LZ4 body compression, grounded on
// api/apc's compression-mode constants.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package compress

import (
	"bytes"
	"io"

	"github.com/pierrec/lz4/v3"
)

// Mode mirrors api/apc/compression.go's CompressAlways/CompressNever.
type Mode string

const (
	Always Mode = "always"
	Never  Mode = "never"
)

// Supported mirrors SupportedCompression in api/apc/compression.go.
func Supported(m Mode) bool {
	return m == Always || m == Never
}

// Compress returns the LZ4-compressed form of body.
func Compress(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(body []byte) ([]byte, error) {
	r := lz4.NewReader(bytes.NewReader(body))
	return io.ReadAll(r)
}
