package benchmarks

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-foundations/dedicatedpool"
)

// Benchmark dispatch throughput at different worker counts, submitting
// externally (injection-queue path). BenchmarkForkJoin below covers
// fork/join from within a worker (local-deque path).
func BenchmarkWorkerCounts(b *testing.B) {
	workerCounts := []int{1, 2, 4, 8, 16}

	for _, n := range workerCounts {
		b.Run(fmt.Sprintf("workers=%d", n), func(b *testing.B) {
			settings := dedicatedpool.DefaultSettings()
			settings.MaxThreads = uint32(n)
			settings.MinThreads = uint32(n)
			pool := dedicatedpool.New(settings)
			defer pool.Dispose()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				var wg sync.WaitGroup
				wg.Add(1000)
				for j := 0; j < 1000; j++ {
					_ = pool.Submit(dedicatedpool.RunnableFunc(func(dedicatedpool.TaskContext) {
						wg.Done()
					}), false)
				}
				wg.Wait()
			}
		})
	}
}

func BenchmarkForkJoin(b *testing.B) {
	settings := dedicatedpool.DefaultSettings()
	pool := dedicatedpool.New(settings)
	defer pool.Dispose()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var wg sync.WaitGroup
		wg.Add(8)
		_ = pool.Submit(dedicatedpool.RunnableFunc(func(tc dedicatedpool.TaskContext) {
			for j := 0; j < 8; j++ {
				_ = tc.Submit(dedicatedpool.RunnableFunc(func(dedicatedpool.TaskContext) {
					wg.Done()
				}))
			}
		}), false)
		wg.Wait()
	}
}
