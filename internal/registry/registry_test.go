package registry

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistryTestSuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (ts *RegistryTestSuite) TestRegisterAppendsAtCorrectIndex() {
	r := New[int]()
	r.Register(10)
	r.Register(20)
	r.Register(30)

	snap := r.Snapshot()
	ts.Equal([]int{10, 20, 30}, snap)
	ts.Equal(3, r.Len())
}

func (ts *RegistryTestSuite) TestUnregisterRemovesFirstMatch() {
	r := New[int]()
	r.Register(1)
	r.Register(2)
	r.Register(3)

	r.Unregister(func(v int) bool { return v == 2 })

	ts.Equal([]int{1, 3}, r.Snapshot())
}

func (ts *RegistryTestSuite) TestUnregisterMissingIsNoOp() {
	r := New[int]()
	r.Register(1)

	r.Unregister(func(v int) bool { return v == 99 })

	ts.Equal([]int{1}, r.Snapshot())
}

func (ts *RegistryTestSuite) TestSnapshotIsImmutableAcrossMutation() {
	r := New[int]()
	r.Register(1)

	snap := r.Snapshot()
	r.Register(2)

	ts.Equal([]int{1}, snap)
	ts.Equal([]int{1, 2}, r.Snapshot())
}
