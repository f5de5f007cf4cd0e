// handler_swiftauth.go implements the Swift TempAuth-style /auth/
// sub-dialect: exchange an X-Auth-User/X-Auth-Key header pair for a bearer
// token, returned via X-Auth-Token/X-Storage-Url headers - grounded on
// rgw_swift_auth.h's RGW_SWIFT_Auth_Get.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgw

import (
	"github.com/NVIDIA/rgwcore/authn"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// SwiftAuthHandler issues tokens; it is registered in the router under the
// "auth" prefix as a plain router.Handler, not a Dialect, since it never
// reaches the operation pipeline (there is no backend Op to execute).
type SwiftAuthHandler struct {
	Tokens     *authn.TokenIssuer
	Creds      *authn.CredStore
	StorageURL string
}

// Handle validates the caller's username/password against the credential
// store and latches either a minted token or an access-denied error onto
// e - the transport layer is expected to promote e.Headers["x-auth-token"]
// (set here on success) into a response header, since router.Handler has
// no direct access to the render.Emitter.
func (h *SwiftAuthHandler) Handle(e *envelope.Envelope) error {
	user := e.Headers["x-auth-user"]
	key := e.Headers["x-auth-key"]
	if user == "" || key == "" {
		e.Abort(rgwerr.New(rgwerr.CodeAccessDenied, "missing X-Auth-User/X-Auth-Key"))
		return e.Err
	}
	cred, err := h.Creds.LookupBySwiftUser(user)
	if err != nil {
		e.Abort(rgwerr.Wrap(rgwerr.CodeAccessDenied, err, "unknown user"))
		return e.Err
	}
	if !authn.VerifyPassword(key, cred.SwiftPassHash, cred.SwiftPassSalt) {
		e.Abort(rgwerr.New(rgwerr.CodeAccessDenied, "invalid credentials"))
		return e.Err
	}
	token, err := h.Tokens.Issue(cred.Account, user)
	if err != nil {
		e.Abort(rgwerr.Wrap(rgwerr.CodeInternalError, err, "token issuance failed"))
		return e.Err
	}
	if e.Headers == nil {
		e.Headers = make(map[string]string)
	}
	e.Headers["x-auth-token"] = token
	e.Headers["x-storage-url"] = h.StorageURL
	e.StatusCode = 200
	return nil
}
