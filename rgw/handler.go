// Package rgw implements the Dialect Handler (C5) and Operation Pipeline
// (C6): per-dialect method+path dispatch, name validation, authorization,
// permission-mode selection, and the strict sequential pipeline that
// drives every request from accept to cleanup. Grounded on rgw_rest.h/
// rgw_rest.cc's RGWHandler_ObjStore and rgw_rest_s3.h's S3 subclass
// hierarchy.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgw

import (
	"io"
	"unicode/utf8"

	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgw/ops"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// Dialect is one wire protocol's handler: it resolves an envelope's
// method+path into a concrete Op, authorizes the caller, and renders the
// op's result back onto the wire. S3 and Swift each implement this.
type Dialect interface {
	Name() string
	Code() rgwerr.Dialect

	// ValidateBucketName mirrors RGWHandler_ObjStore::validate_bucket_name.
	ValidateBucketName(name string) error
	// ValidateObjectName mirrors RGWHandler_ObjStore::validate_object_name.
	ValidateObjectName(name string) error

	// GetOp parses rest (the path remaining after the router's prefix
	// match) and query into e.Bucket/e.Object and resolves the matching
	// Op - mirrors op_from_method plus the dialect's per-resource-class
	// get/put/delete/post dispatch tables. isCopy/isACLOp feed
	// ReadPermissions's special cases.
	GetOp(e *envelope.Envelope, rest string, query map[string]string, body io.Reader) (op ops.Op, isCopy, isACLOp bool, err error)

	// Authorize checks the request's credentials - mirrors authorize().
	Authorize(e *envelope.Envelope) error

	// Render serializes op's result through emit once Execute has
	// succeeded - the dialect owns wire format (S3 XML vs Swift JSON).
	Render(e *envelope.Envelope, emit *render.Emitter, op ops.Op) error
}

// ValidateBucketName is shared by both dialects - mirrors
// RGWHandler_ObjStore::validate_bucket_name: empty is fine (service-level
// ops have no bucket yet), otherwise length must be in [3, 255].
func ValidateBucketName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) < 3 {
		return rgwerr.New(rgwerr.CodeInvalidBucketName, "bucket name too short")
	}
	if len(name) > 255 {
		return rgwerr.New(rgwerr.CodeInvalidBucketName, "bucket name too long")
	}
	return nil
}

// ValidateObjectName is shared by both dialects - mirrors
// RGWHandler_ObjStore::validate_object_name: length <= 1024 and valid
// UTF-8.
func ValidateObjectName(name string) error {
	if len(name) > 1024 {
		return rgwerr.New(rgwerr.CodeInvalidObjectName, "object name too long")
	}
	if !utf8.ValidString(name) {
		return rgwerr.New(rgwerr.CodeInvalidObjectName, "object name is not valid UTF-8")
	}
	return nil
}

// ReadPermissions sets e.PermMode from e.Method and the op-class flags
// GetOp reported, following RGWHandler_ObjStore::read_permissions's mode
// table: GET/HEAD, ACL operations and a POST with no object component
// (multi-object delete) check both bucket and object; COPY also selects
// "both" (it needs read on the source and write on the destination);
// a PUT with no object component is create-bucket, which needs no
// permission beyond authorization; everything else (DELETE, object
// PUT/POST) checks against the bucket only.
func ReadPermissions(e *envelope.Envelope, isCopy, isACLOp bool) {
	switch {
	case isCopy:
		e.PermMode = envelope.PermBoth
	case e.Method == "GET" || e.Method == "HEAD":
		e.PermMode = envelope.PermBoth
	case isACLOp:
		e.PermMode = envelope.PermBoth
	case e.Object == "" && e.Method == "POST":
		// multi-object delete.
		e.PermMode = envelope.PermBoth
	case e.Object == "" && e.Method == "PUT":
		// create-bucket: authorization alone suffices.
		e.PermMode = envelope.PermNone
	default:
		e.PermMode = envelope.PermOnlyBucket
	}
}
