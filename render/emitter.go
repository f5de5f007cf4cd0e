package render

import (
	"fmt"
	"io"

	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/rgwcore/rgwerr"
)

// Emitter writes status line, headers, and body to a fasthttp response,
// mirroring rgw_rest.cc's dump_status/dump_errno/end_header/abort_early
// free-function sequence.
type Emitter struct {
	ctx *fasthttp.RequestCtx
	f   Formatter
}

func NewEmitter(ctx *fasthttp.RequestCtx, f Formatter) *Emitter {
	return &Emitter{ctx: ctx, f: f}
}

// DumpStatus sets the HTTP status line - dump_status.
func (e *Emitter) DumpStatus(code int) {
	e.ctx.SetStatusCode(code)
}

// DumpErrno maps an OpError to an HTTP status via the dialect's error
// table and sets it - dump_errno.
func (e *Emitter) DumpErrno(dialect rgwerr.Dialect, oe *rgwerr.OpError) (status int, wireName string) {
	status, wireName = rgwerr.Resolve(dialect, oe.Code)
	e.ctx.SetStatusCode(status)
	return status, wireName
}

// DumpContentLength sets Content-Length and Accept-Ranges - dump_content_length.
func (e *Emitter) DumpContentLength(n int64) {
	e.ctx.Response.Header.SetContentLength(int(n))
	e.ctx.Response.Header.Set("Accept-Ranges", "bytes")
}

// DumpEtag sets the ETag header; S3 quotes it, Swift lowercases the header
// name and leaves the value bare - dump_etag.
func (e *Emitter) DumpEtag(dialect rgwerr.Dialect, etag string) {
	if dialect == rgwerr.DialectS3 {
		e.ctx.Response.Header.Set("ETag", `"`+etag+`"`)
	} else {
		e.ctx.Response.Header.Set("etag", etag)
	}
}

// DumpLastModified sets Last-Modified - dump_last_modified.
func (e *Emitter) DumpLastModified(httpDate string) {
	e.ctx.Response.Header.Set("Last-Modified", httpDate)
}

// DumpRange sets Content-Range for a partial response - dump_range.
func (e *Emitter) DumpRange(start, end, total int64) {
	e.ctx.Response.Header.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, total))
}

// DumpContinue sets the response status code to 100 Continue -
// dump_continue. Nothing is written or flushed ahead of the final
// response.
func (e *Emitter) DumpContinue() {
	e.ctx.Response.Header.SetStatusCode(fasthttp.StatusContinue)
}

// EndHeader sets Content-Type (with the Swift charset suffix already baked
// into JSON.ContentType) and, on error, serializes the {Code,Message} body
// via the active formatter - end_header.
func (e *Emitter) EndHeader(dialect rgwerr.Dialect, oe *rgwerr.OpError, reqID string) {
	e.ctx.Response.Header.SetContentType(e.f.ContentType())
	if oe == nil {
		return
	}
	_, wireName := rgwerr.Resolve(dialect, oe.Code)
	body := MustMarshal(e.f, ErrorBody{Code: wireName, Message: oe.Message, ReqID: reqID})
	e.ctx.Response.SetBody(body)
}

// AbortEarly is the single abort-early path: resolve the error, dump the
// status, write the error body, and report the final status for metrics.
// Mirrors abort_early's set_req_state_err -> dump_errno -> end_header ->
// flush -> perfcounter-increment sequence.
func (e *Emitter) AbortEarly(dialect rgwerr.Dialect, err error, reqID string) int {
	oe := rgwerr.AsOpError(err)
	status, _ := e.DumpErrno(dialect, oe)
	e.EndHeader(dialect, oe, reqID)
	return status
}

// WriteBody serializes v with the active formatter and writes it as the
// response body, setting Content-Length to match.
func (e *Emitter) WriteBody(v interface{}) error {
	body, err := e.f.Marshal(v)
	if err != nil {
		return err
	}
	e.ctx.Response.SetBody(body)
	e.DumpContentLength(int64(len(body)))
	return nil
}

// WriteStream hands r to fasthttp as the response body stream - used by
// GetObjectOp, whose body is never fully buffered in memory. size < 0
// means unknown length (chunked transfer).
func (e *Emitter) WriteStream(r io.Reader, size int64) {
	e.ctx.Response.SetBodyStream(r, int(size))
}

// WriteRaw writes body verbatim, bypassing the formatter - used for
// already-serialized documents such as a stored ACL policy.
func (e *Emitter) WriteRaw(body []byte) {
	e.ctx.Response.SetBody(body)
	e.DumpContentLength(int64(len(body)))
}
