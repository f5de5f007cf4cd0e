// Package render implements the Response Emitter (C8): wire-format
// serialization (S3 XML vs Swift JSON) and the status-line/header/body
// flush sequence, grounded on rgw_rest.cc's dump_*/end_header/abort_early
// free functions and ais/s3compat/object.go's MustMarshal idiom.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package render

import (
	"bytes"
	"encoding/xml"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/NVIDIA/rgwcore/rgwdebug"
)

// Formatter serializes a response body value for one dialect. S3 uses XML,
// Swift uses JSON - a "formatter handle" abstraction.
type Formatter interface {
	// ContentType returns the Content-Type header value this formatter
	// produces (including charset where the dialect requires it).
	ContentType() string
	// Marshal serializes v, prepending any dialect-specific preamble (the
	// S3 XML DTD line).
	Marshal(v interface{}) ([]byte, error)
}

// XML is the S3 dialect formatter.
type XML struct{}

const xmlDTD = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

func (XML) ContentType() string { return "application/xml" }

func (XML) Marshal(v interface{}) ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	buf := bytes.NewBufferString(xmlDTD)
	buf.Write(body)
	return buf.Bytes(), nil
}

// JSON is the Swift dialect formatter - Swift responses are UTF-8 JSON
// with an explicit charset on the content type.
type JSON struct{}

func (JSON) ContentType() string { return "application/json; charset=utf-8" }

func (JSON) Marshal(v interface{}) ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(v)
}

// MustMarshal marshals v with f, panicking on error. Reserved for values
// this package constructs itself, where a marshal failure indicates a
// programming error rather than bad input - mirrors
// ais/s3compat/object.go's MustMarshal.
func MustMarshal(f Formatter, v interface{}) []byte {
	b, err := f.Marshal(v)
	rgwdebug.AssertNoErr(err)
	return b
}

// ErrorBody is the {Code, Message} shape both dialects emit on error,
// mirroring end_header's error-body construction.
type ErrorBody struct {
	XMLName xml.Name `xml:"Error" json:"-"`
	Code    string   `xml:"Code" json:"code"`
	Message string   `xml:"Message" json:"message"`
	ReqID   string   `xml:"RequestId,omitempty" json:"request_id,omitempty"`
}

// FormatHTTPTime renders t the way dump_time/dump_last_modified do: RFC
// 1123 in GMT.
func FormatHTTPTime(t time.Time) string {
	return t.UTC().Format(http1123GMT)
}

const http1123GMT = "Mon, 02 Jan 2006 15:04:05 GMT"
