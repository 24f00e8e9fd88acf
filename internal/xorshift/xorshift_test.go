package xorshift

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type XorshiftTestSuite struct {
	suite.Suite
}

func TestXorshiftTestSuite(t *testing.T) {
	suite.Run(t, new(XorshiftTestSuite))
}

func (ts *XorshiftTestSuite) TestZeroSeedReplaced() {
	r := New(0)
	ts.NotEqual(uint64(0), r.Next())
}

func (ts *XorshiftTestSuite) TestDeterministicForFixedSeed() {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		ts.Equal(a.Next(), b.Next())
	}
}

func (ts *XorshiftTestSuite) TestIntnStaysInRange() {
	r := New(7)
	for i := 0; i < 10000; i++ {
		v := r.Intn(13)
		ts.GreaterOrEqual(v, 0)
		ts.Less(v, 13)
	}
}

func (ts *XorshiftTestSuite) TestIntnPanicsOnNonPositive() {
	r := New(1)
	ts.Panics(func() { r.Intn(0) })
	ts.Panics(func() { r.Intn(-1) })
}
