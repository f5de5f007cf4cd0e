// dispatch.go wires the router, the per-dialect handlers, and the
// operation pipeline into a pool.Dispatcher, translating a fasthttp
// request into an envelope.Envelope and back into a rendered response.
/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package rgw

import (
	"bytes"
	"context"
	"strings"

	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/rgwcore/backend"
	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/render"
	"github.com/NVIDIA/rgwcore/rgwerr"
	"github.com/NVIDIA/rgwcore/router"
)

// dialectNode parks a Dialect in the router's prefix tree. Dispatcher
// type-asserts the resolved Handler back to dialectNode to drive the
// pipeline directly, since the pipeline needs the fasthttp.RequestCtx for
// streaming/emitter access that router.Handler's minimal
// Handle(*envelope.Envelope) signature doesn't carry.
type dialectNode struct{ d Dialect }

func (dialectNode) Handle(*envelope.Envelope) error { return nil }

// RegisterDialect parks d in r under prefix so Resolve's longest-prefix
// match can find it - e.g. RegisterDialect(r, "swift", swiftDialect).
func RegisterDialect(r *router.Router, prefix string, d Dialect) {
	r.Register(prefix, dialectNode{d: d})
}

// RegisterDefaultDialect sets d as the router's fallback. S3 path-style
// addressing is reached this way: bucket/object names occupy the path
// root with no fixed prefix of their own.
func RegisterDefaultDialect(r *router.Router, d Dialect) {
	r.RegisterDefault(dialectNode{d: d})
}

// Dispatcher matches pool.Dispatcher's signature without importing pool
// (which would create an import cycle, since pool.Serve is the caller).
type Dispatcher func(ctx context.Context, fctx *fasthttp.RequestCtx, e *envelope.Envelope) error

// NewDispatcher builds a Dispatcher that resolves the request's path
// through r, running either a parked Dialect through the full operation
// pipeline or a plain router.Handler (the Swift auth sub-dialect) inline.
func NewDispatcher(r *router.Router, provider backend.Provider, suspended SuspendChecker) Dispatcher {
	pl := &Pipeline{Provider: provider, Suspended: suspended}
	return func(ctx context.Context, fctx *fasthttp.RequestCtx, e *envelope.Envelope) error {
		populateFromRequest(e, fctx)
		query := parseQuery(fctx)

		path := router.ParsePath(string(fctx.Path()))
		h, rest := r.Resolve(path)
		if h == nil {
			e.Abort(rgwerr.New(rgwerr.CodeMethodNotAllowed, "no handler registered for path"))
			fctx.SetStatusCode(405)
			return e.Err
		}

		dn, ok := h.(dialectNode)
		if !ok {
			err := h.Handle(e)
			writeHandlerHeaders(e, fctx)
			if e.Err != nil {
				fctx.SetStatusCode(502)
			} else if e.StatusCode != 0 {
				fctx.SetStatusCode(e.StatusCode)
			}
			return err
		}

		formatter := render.Formatter(render.XML{})
		if dn.d.Code() == rgwerr.DialectSwift {
			formatter = render.JSON{}
		}
		emit := render.NewEmitter(fctx, formatter)
		body := bytes.NewReader(fctx.PostBody())
		pl.Run(ctx, e, emit, dn.d, rest, query, body)
		return e.Err
	}
}

// populateFromRequest copies fasthttp's request line, headers, and
// metadata headers onto e - mirrors rgw_rest.cc's init_meta_info plus the
// teacher's header-normalization convention of lower-casing names.
func populateFromRequest(e *envelope.Envelope, fctx *fasthttp.RequestCtx) {
	raw := make(map[string][]string)
	fctx.Request.Header.VisitAll(func(k, v []byte) {
		key := strings.ToLower(string(k))
		e.Headers[key] = string(v)
		raw[key] = append(raw[key], string(v))
	})
	e.InitMetaInfo(raw)
}

func parseQuery(fctx *fasthttp.RequestCtx) map[string]string {
	query := make(map[string]string)
	fctx.QueryArgs().VisitAll(func(k, v []byte) {
		query[string(k)] = string(v)
	})
	return query
}

// writeHandlerHeaders promotes headers a plain router.Handler set on e
// (e.g. the Swift auth handler's X-Auth-Token) onto the actual response.
func writeHandlerHeaders(e *envelope.Envelope, fctx *fasthttp.RequestCtx) {
	if token, ok := e.Headers["x-auth-token"]; ok {
		fctx.Response.Header.Set("X-Auth-Token", token)
	}
	if url, ok := e.Headers["x-storage-url"]; ok {
		fctx.Response.Header.Set("X-Storage-Url", url)
	}
}
