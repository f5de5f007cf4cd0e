// handler_swift.go implements the Swift dialect - grounded on
// rgw_rest_swift.h's RGWHandler_REST_SWIFT's /v1/AUTH_<account>/<container>/
// <object> path convention and its X-Auth-Token bearer scheme.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgw

import (
	"io"
	"strconv"
	"strings"

	"github.com/NVIDIA/rgwcore/authn"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgw/ops"
	"github.com/NVIDIA/rgwcore/rgwerr"
	"github.com/NVIDIA/rgwcore/swiftcompat"
)

// SwiftDialect resolves Swift method+path combinations into Ops and
// verifies the bearer token minted by the /auth/ sub-dialect.
type SwiftDialect struct {
	Tokens *authn.TokenIssuer
	Creds  *authn.CredStore
}

func (*SwiftDialect) Name() string                  { return "swift" }
func (*SwiftDialect) Code() rgwerr.Dialect           { return rgwerr.DialectSwift }
func (*SwiftDialect) ValidateBucketName(n string) error { return ValidateBucketName(n) }
func (*SwiftDialect) ValidateObjectName(n string) error { return ValidateObjectName(n) }

// GetOp parses the Swift path convention AUTH_<account>/<container>/<object>
// (the leading "v1" segment is already consumed by the router prefix) and
// dispatches on method. Swift has no S3-style query-overloaded verbs for
// the operations this core implements, so the dispatch table is simpler
// than S3's.
func (d *SwiftDialect) GetOp(e *envelope.Envelope, rest string, query map[string]string, body io.Reader) (ops.Op, bool, bool, error) {
	rest = strings.TrimPrefix(strings.Trim(rest, "/"), "v1/")
	// parts[0] is the AUTH_<account> segment; account-level scoping beyond
	// credential lookup (already verified in Authorize) is out of scope.
	parts := strings.SplitN(strings.TrimPrefix(rest, "AUTH_"), "/", 2)
	containerAndObj := ""
	if len(parts) == 2 {
		containerAndObj = parts[1]
	}
	container, object := splitBucketKey(containerAndObj)
	e.Bucket = container
	e.Object = object

	if container == "" {
		if e.Method == "GET" || e.Method == "HEAD" {
			return &ops.ListBucketsOp{}, false, false, nil
		}
		return nil, false, false, rgwerr.New(rgwerr.CodeMethodNotAllowed, "method not allowed at account scope")
	}

	if object == "" {
		switch e.Method {
		case "PUT":
			return &ops.CreateBucketOp{}, false, false, nil
		case "DELETE":
			return &ops.DeleteBucketOp{}, false, false, nil
		case "HEAD":
			return &ops.StatBucketOp{}, false, false, nil
		case "GET":
			op := &ops.ListBucketOp{}
			op.Prefix = query["prefix"]
			op.Delimiter = query["delimiter"]
			op.Marker = query["marker"]
			if mk, err := strconv.Atoi(query["limit"]); err == nil {
				op.MaxKeys = mk
			}
			return op, false, false, nil
		}
		return nil, false, false, rgwerr.New(rgwerr.CodeMethodNotAllowed, "unsupported container-level method")
	}

	switch e.Method {
	case "GET":
		return rangedGetOp(e), false, false, nil
	case "HEAD":
		return &ops.HeadObjectOp{}, false, false, nil
	case "PUT":
		cl, _ := strconv.ParseInt(e.Headers["content-length"], 10, 64)
		return &ops.PutObjectOp{ContentLen: cl, Body: body}, false, false, nil
	case "DELETE":
		return &ops.DeleteObjectOp{}, false, false, nil
	case "COPY":
		dest := e.Headers["destination"]
		dstBucket, dstKey := splitBucketKey(dest)
		e.Bucket, e.Object = dstBucket, dstKey
		return &ops.CopyObjectOp{SrcBucket: container, SrcKey: object}, true, false, nil
	}
	return nil, false, false, rgwerr.New(rgwerr.CodeMethodNotAllowed, "unsupported object-level method")
}

// Authorize verifies the X-Auth-Token bearer header minted by the /auth/
// sub-dialect - mirrors rgw_swift_auth.h's token-validation path.
func (d *SwiftDialect) Authorize(e *envelope.Envelope) error {
	token := e.Headers["x-auth-token"]
	if token == "" {
		return rgwerr.New(rgwerr.CodeSignatureDoesNotMatch, "missing X-Auth-Token")
	}
	account, _, err := d.Tokens.Verify(token)
	if err != nil {
		return rgwerr.Wrap(rgwerr.CodeSignatureDoesNotMatch, err, "invalid or expired token")
	}
	e.User = account
	return nil
}

// Render serializes op's result as Swift JSON (or a raw stream for
// GetObjectOp), mirroring rgw_rest_swift.h's send_response methods.
func (d *SwiftDialect) Render(e *envelope.Envelope, emit *render.Emitter, op ops.Op) error {
	emit.DumpStatus(200)
	switch o := op.(type) {
	case *ops.GetObjectOp:
		defer o.Body.Close()
		emit.DumpEtag(rgwerr.DialectSwift, o.Info.ETag)
		emit.DumpLastModified(render.FormatHTTPTime(o.Info.LastModified))
		emit.WriteStream(o.Body, o.Info.Size)
		return nil
	case *ops.HeadObjectOp:
		emit.DumpEtag(rgwerr.DialectSwift, o.Info.ETag)
		emit.DumpLastModified(render.FormatHTTPTime(o.Info.LastModified))
		emit.DumpContentLength(o.Info.Size)
		return nil
	case *ops.PutObjectOp:
		emit.DumpEtag(rgwerr.DialectSwift, o.Result.ETag)
		return nil
	case *ops.DeleteObjectOp, *ops.DeleteBucketOp, *ops.CreateBucketOp:
		emit.DumpStatus(204)
		return nil
	case *ops.StatBucketOp:
		emit.DumpLastModified(render.FormatHTTPTime(o.Result.CreationDate))
		return nil
	case *ops.ListBucketOp:
		return emit.WriteBody(swiftcompat.FromListResult(o.Result))
	case *ops.ListBucketsOp:
		return emit.WriteBody(swiftcompat.FromBucketList(o.Result))
	case *ops.CopyObjectOp:
		emit.DumpEtag(rgwerr.DialectSwift, o.Result.ETag)
		emit.DumpStatus(201)
		return nil
	}
	return nil
}
