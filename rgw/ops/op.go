// Package ops implements the Operation Library (C7): the canonical set of
// object/bucket/multipart operations, each following the
// verify_permission -> verify_params -> execute contract from rgw_op.h's
// RGWOp base class.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"context"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
)

// Op is one canonical operation. The pipeline (package rgw) drives these
// three methods in strict order - VerifyPermission, then VerifyParams,
// then Execute - aborting at the first error, mirroring
// RGWOp::verify_permission/verify_params/execute.
type Op interface {
	// Name is the operation's canonical name, used in the per-request
	// access-log line's opname field and metrics labels.
	Name() string
	// VerifyParams validates request parameters are well-formed. Runs
	// after VerifyPermission has already passed.
	VerifyParams(e *envelope.Envelope) error
	// VerifyPermission checks the caller is authorized for this operation
	// against the permissions read_permissions already loaded onto e.
	VerifyPermission(e *envelope.Envelope) error
	// Execute performs the operation against p, storing its result in the
	// op's own fields for the dialect's Render step to write out.
	Execute(ctx context.Context, e *envelope.Envelope, p backend.Provider) error
}

// Result is a small ETag/timestamp result payload, used by PutObjectOp;
// the other ops keep their results in fields of their own.
type Result struct {
	ETag         string
	LastModified string
}
