package pool

import (
	"context"

	"github.com/valyala/fasthttp"

	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/reqid"
	"github.com/NVIDIA/rgwcore/rgwerr"
)

// Dispatcher builds an *envelope.Envelope from a fasthttp.RequestCtx and
// runs it through the operation pipeline, returning the final error (if
// any) so the transport handler can render it.
type Dispatcher func(ctx context.Context, ctx2 *fasthttp.RequestCtx, env *envelope.Envelope) error

// Serve wraps fasthttp.ListenAndServe so every accepted connection's
// request becomes a Task pushed onto the bounded pool and drained by a
// fixed worker, rather than one goroutine per fasthttp connection running
// unbounded - this is what makes the admission semaphore load-bearing.
func (p *Pool) Serve(addr string, dispatch Dispatcher) error {
	handler := func(ctx *fasthttp.RequestCtx) {
		env := envelope.New(reqid.Next(), string(ctx.Method()), string(ctx.Host()))
		env.SetPath(string(ctx.Path()))

		reqCtx := context.Background()
		done := make(chan struct{})

		err := p.Submit(reqCtx, Task{
			Env: env,
			Execute: func(e *envelope.Envelope) error {
				defer close(done)
				return dispatch(reqCtx, ctx, e)
			},
		})
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetBodyString("pool admission rejected: " + err.Error())
			return
		}
		<-done
		if env.Err != nil {
			oe := rgwerr.AsOpError(env.Err)
			status, _ := rgwerr.Resolve(env.Dialect, oe.Code)
			ctx.SetStatusCode(status)
		}
	}
	return fasthttp.ListenAndServe(addr, handler)
}
