package unfairsem

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zoobzio/clockz"
)

type SemaphoreTestSuite struct {
	suite.Suite
}

func TestSemaphoreTestSuite(t *testing.T) {
	suite.Run(t, new(SemaphoreTestSuite))
}

func (ts *SemaphoreTestSuite) TestReleaseUnblocksWaiter() {
	sem := New(clockz.NewFakeClock())

	done := make(chan bool, 1)
	go func() {
		done <- sem.Wait(time.Second)
	}()

	// Give the waiter time to register as a spinner/waiter.
	time.Sleep(20 * time.Millisecond)
	sem.Release(1)

	select {
	case acquired := <-done:
		ts.True(acquired)
	case <-time.After(2 * time.Second):
		ts.Fail("wait never returned after release")
	}
}

func (ts *SemaphoreTestSuite) TestInvariantsHoldAfterTransitions() {
	clock := clockz.NewFakeClock()
	sem := New(clock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem.Wait(10 * time.Millisecond)
		}()
	}

	// Give every waiter time to exhaust its spin budget and register on
	// the kernel semaphore's clock.After(timeout) before advancing past
	// it -- otherwise the advance can race ahead of a waiter that hasn't
	// called After yet and that waiter blocks forever.
	time.Sleep(20 * time.Millisecond)
	clock.Advance(10 * time.Millisecond)
	clock.BlockUntilReady()

	wg.Wait()

	sp, cfs, w, cfw := sem.Snapshot()
	ts.GreaterOrEqual(sp, 0)
	ts.GreaterOrEqual(cfs, 0)
	ts.GreaterOrEqual(w, 0)
	ts.GreaterOrEqual(cfw, 0)
	ts.LessOrEqual(cfs+cfw, MaxWorker)
}

func (ts *SemaphoreTestSuite) TestNoLostWakeupsUnderNProducersNConsumers() {
	const n = 50
	sem := New(clockz.NewFakeClock())

	results := make(chan bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- sem.Wait(2 * time.Second)
		}()
	}

	for i := 0; i < n; i++ {
		go sem.Release(1)
	}

	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	ts.Equal(n, successes)
}

func (ts *SemaphoreTestSuite) TestSurplusReleaseIsBankedForSpinners() {
	sem := New(clockz.NewFakeClock())

	sem.Release(4)

	acquired := sem.Wait(0)
	ts.True(acquired)
}
