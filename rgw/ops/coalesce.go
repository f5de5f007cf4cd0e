package ops

import (
	"github.com/NVIDIA/rgwcore/reserve"
)

// getReserver and partReserver are the two Async Reserver consumers: GET
// coalescing keyed by "bucket/object", and multipart part-upload
// serialization keyed by "bucket/uploadID", so two parts of the same
// upload never race a concurrent backend write.
var (
	getReserver  = reserve.New[string](64)
	partReserver = reserve.New[string](64)
)

// acquire blocks the calling goroutine until key's reservation is granted,
// then returns a release func. Bridges reserve.Reserver's callback-style
// Request onto the synchronous call path every Op.Execute uses.
func acquire(r *reserve.Reserver[string], key string) func() {
	done := make(chan struct{})
	r.Request(key, func(string) { close(done) })
	<-done
	return func() { r.Release(key) }
}
