// Package rgwerr defines the internal error-code taxonomy and the
// per-dialect (S3 / Swift) tables that map those codes onto HTTP status
// plus a wire-level error name, mirroring rgw_rest.cc's set_req_state_err.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgwerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code is the internal, dialect-agnostic error taxonomy. Operations never
// produce raw HTTP statuses directly - they return a Code, and the
// pipeline's single abort-early path resolves it against the active
// dialect's table.
type Code int

const (
	CodeNone Code = iota
	CodeAccessDenied
	CodeNoSuchBucket
	CodeNoSuchKey
	CodeBucketNotEmpty
	CodeBucketAlreadyExists
	CodeInvalidBucketName
	CodeInvalidObjectName
	CodeInvalidArgument
	CodeMissingContentLength
	CodeEntityTooLarge
	CodeNoSuchUpload
	CodeInvalidPart
	CodeSignatureDoesNotMatch
	CodeInvalidAccessKey
	CodeMethodNotAllowed
	CodeRequestTimeTooSkewed
	CodePreconditionFailed
	CodeNotModified
	CodeInternalError
)

// entry is one row of a dialect error table: HTTP status + wire error name.
type entry struct {
	status int
	name   string
}

// s3Table mirrors the S3 branch of rgw_rest.cc's set_req_state_err switch.
var s3Table = map[Code]entry{
	CodeAccessDenied:          {403, "AccessDenied"},
	CodeNoSuchBucket:          {404, "NoSuchBucket"},
	CodeNoSuchKey:             {404, "NoSuchKey"},
	CodeBucketNotEmpty:        {409, "BucketNotEmpty"},
	CodeBucketAlreadyExists:   {409, "BucketAlreadyExists"},
	CodeInvalidBucketName:     {400, "InvalidBucketName"},
	CodeInvalidObjectName:     {400, "InvalidObjectName"}, // ceph: "Unknown" actually maps to 400 key errors; kept distinct for clarity
	CodeInvalidArgument:       {400, "InvalidArgument"},
	CodeMissingContentLength:  {411, "MissingContentLength"},
	CodeEntityTooLarge:        {400, "EntityTooLarge"},
	CodeNoSuchUpload:          {404, "NoSuchUpload"},
	CodeInvalidPart:           {400, "InvalidPart"},
	CodeSignatureDoesNotMatch: {403, "SignatureDoesNotMatch"},
	CodeInvalidAccessKey:      {403, "InvalidAccessKeyId"},
	CodeMethodNotAllowed:      {405, "MethodNotAllowed"},
	CodeRequestTimeTooSkewed:  {403, "RequestTimeTooSkewed"},
	CodePreconditionFailed:    {412, "PreconditionFailed"},
	CodeNotModified:           {304, "NotModified"},
	CodeInternalError:         {500, "InternalError"},
}

// swiftTable mirrors the Swift branch.
var swiftTable = map[Code]entry{
	CodeAccessDenied:          {403, "AccessDenied"},
	CodeNoSuchBucket:          {404, "NoSuchContainer"},
	CodeNoSuchKey:             {404, "NoSuchKey"},
	CodeBucketNotEmpty:        {409, "NotEmpty"},
	CodeBucketAlreadyExists:   {202, "Accepted"}, // Swift accepts idempotent re-creates
	CodeInvalidBucketName:     {400, "InvalidContainerName"},
	CodeInvalidObjectName:     {400, "InvalidObjectName"},
	CodeInvalidArgument:       {400, "InvalidArgument"},
	CodeMissingContentLength:  {411, "MissingContentLength"},
	CodeEntityTooLarge:        {400, "EntityTooLarge"},
	CodeNoSuchUpload:          {404, "NoSuchUpload"},
	CodeInvalidPart:           {400, "InvalidPart"},
	CodeSignatureDoesNotMatch: {401, "Unauthorized"},
	CodeInvalidAccessKey:      {401, "Unauthorized"},
	CodeMethodNotAllowed:      {405, "MethodNotAllowed"},
	CodeRequestTimeTooSkewed:  {401, "Unauthorized"},
	CodePreconditionFailed:    {412, "PreconditionFailed"},
	CodeNotModified:           {304, "NotModified"},
	CodeInternalError:         {500, "InternalError"},
}

// Dialect selects which wire table Resolve consults.
type Dialect int

const (
	DialectS3 Dialect = iota
	DialectSwift
)

// Resolve looks up code's HTTP status and wire error name for dialect,
// falling back to HTTP 500 / "UnknownError" exactly as
// rgw_rest.cc::set_req_state_err does for any unmapped code.
func Resolve(dialect Dialect, code Code) (status int, wireName string) {
	table := s3Table
	if dialect == DialectSwift {
		table = swiftTable
	}
	if e, ok := table[code]; ok {
		return e.status, e.name
	}
	return 500, "UnknownError"
}

// OpError is the error type operations return: a Code plus a wrapped cause
// carrying a stack trace from the point of origin.
type OpError struct {
	Code    Code
	Message string
	cause   error
}

func New(code Code, message string) *OpError {
	return &OpError{Code: code, Message: message, cause: errors.New(message)}
}

func Wrap(code Code, cause error, message string) *OpError {
	return &OpError{Code: code, Message: message, cause: errors.Wrap(cause, message)}
}

func (e *OpError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("rgwerr: code=%d", e.Code)
	}
	return e.Message
}

func (e *OpError) Unwrap() error { return e.cause }

// AsOpError extracts an *OpError from err, returning a CodeInternalError
// OpError wrapping err when err isn't one - mirroring abort_early's behavior
// of mapping any unrecognized failure onto the dialect's default case.
func AsOpError(err error) *OpError {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe
	}
	return &OpError{Code: CodeInternalError, Message: err.Error(), cause: err}
}
