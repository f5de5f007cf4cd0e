package pool_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/NVIDIA/rgwcore/envelope"
	"github.com/NVIDIA/rgwcore/pool"
)

var _ = Describe("Pool", func() {
	var p *pool.Pool

	AfterEach(func() {
		if p != nil {
			p.Shutdown()
		}
	})

	Context("admission throttle", func() {
		It("never runs more than 2x the configured worker count concurrently", func() {
			p = pool.New(2, 32, time.Second, 2*time.Second)

			var concurrent int32
			var maxSeen int32
			var mu sync.Mutex
			var wg sync.WaitGroup

			for i := 0; i < 20; i++ {
				wg.Add(1)
				env := envelope.New(uint64(i), "GET", "h")
				go func() {
					defer wg.Done()
					_ = p.Submit(context.Background(), pool.Task{
						Env: env,
						Execute: func(*envelope.Envelope) error {
							n := atomic.AddInt32(&concurrent, 1)
							mu.Lock()
							if n > maxSeen {
								maxSeen = n
							}
							mu.Unlock()
							time.Sleep(10 * time.Millisecond)
							atomic.AddInt32(&concurrent, -1)
							return nil
						},
					})
				}()
			}
			wg.Wait()

			Expect(maxSeen).To(BeNumerically("<=", 4))
		})
	})

	Context("FIFO dispatch under load", func() {
		It("processes all submitted tasks exactly once, in FIFO-ish arrival order per worker", func() {
			p = pool.New(1, 64, time.Second, 2*time.Second)

			var mu sync.Mutex
			var order []int
			var wg sync.WaitGroup

			for i := 0; i < 10; i++ {
				wg.Add(1)
				i := i
				env := envelope.New(uint64(i), "GET", "h")
				Expect(p.Submit(context.Background(), pool.Task{
					Env: env,
					Execute: func(*envelope.Envelope) error {
						defer wg.Done()
						mu.Lock()
						order = append(order, i)
						mu.Unlock()
						return nil
					},
				})).To(Succeed())
			}
			wg.Wait()

			Expect(order).To(HaveLen(10))
			for i := 0; i < 10; i++ {
				Expect(order[i]).To(Equal(i))
			}
		})
	})
})
