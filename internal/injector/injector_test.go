package injector

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"
)

type InjectorTestSuite struct {
	suite.Suite
}

func TestInjectorTestSuite(t *testing.T) {
	suite.Run(t, new(InjectorTestSuite))
}

func (ts *InjectorTestSuite) TestFIFOOrderSingleProducer() {
	q := New[int]()
	for i := 0; i < 100; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 100; i++ {
		item, ok := q.TryDequeue()
		ts.True(ok)
		ts.Equal(i, item)
	}
	_, ok := q.TryDequeue()
	ts.False(ok)
}

func (ts *InjectorTestSuite) TestEmptyQueueReportsNotOK() {
	q := New[int]()
	_, ok := q.TryDequeue()
	ts.False(ok)
	ts.Equal(0, q.Len())
}

func (ts *InjectorTestSuite) TestConcurrentProducersConsumersDeliverEveryItem() {
	const n = 5000
	const producers = 5
	const consumers = 5

	q := New[int]()
	var pwg sync.WaitGroup
	for p := 0; p < producers; p++ {
		pwg.Add(1)
		go func(base int) {
			defer pwg.Done()
			for i := 0; i < n/producers; i++ {
				q.Enqueue(base*1000000 + i)
			}
		}(p)
	}

	var mu sync.Mutex
	seen := make(map[int]bool, n)
	remaining := n
	var cwg sync.WaitGroup
	done := make(chan struct{})
	for c := 0; c < consumers; c++ {
		cwg.Add(1)
		go func() {
			defer cwg.Done()
			for {
				if item, ok := q.TryDequeue(); ok {
					mu.Lock()
					seen[item] = true
					remaining--
					if remaining == 0 {
						close(done)
					}
					mu.Unlock()
					continue
				}
				select {
				case <-done:
					return
				default:
				}
			}
		}()
	}

	pwg.Wait()
	cwg.Wait()

	ts.Len(seen, n)
}

func (ts *InjectorTestSuite) TestReclaimsConsumedPrefix() {
	q := New[int]()
	for i := 0; i < 200; i++ {
		q.Enqueue(i)
	}
	for i := 0; i < 150; i++ {
		_, _ = q.TryDequeue()
	}
	ts.Equal(50, q.Len())
	item, ok := q.TryDequeue()
	ts.True(ok)
	ts.Equal(150, item)
}
