package sim

import (
	"testing"
)

func TestDispatchDimsCoverage(t *testing.T) {
	cases := []struct {
		n     int
		wantX uint32
		wantY uint32
	}{
		{0, 1, 1},
		{1, 1, 1},
		{256, 1, 1},
		{257, 2, 1},
		{2_000_000, 7813, 1},
		{WorkgroupSize * maxDispatchDim, maxDispatchDim, 1},
		{WorkgroupSize*maxDispatchDim + 1, maxDispatchDim, 2},
	}

	for _, tc := range cases {
		x, y := DispatchDims(tc.n)
		if x != tc.wantX || y != tc.wantY {
			t.Errorf("DispatchDims(%d) = (%d, %d), want (%d, %d)", tc.n, x, y, tc.wantX, tc.wantY)
		}
	}
}

func TestDispatchDimsInvariants(t *testing.T) {
	for _, n := range []int{1, 255, 256, 1_500_000, 2_000_000, 20_000_000, 100_000_000} {
		x, y := DispatchDims(n)
		if x < 1 || x > maxDispatchDim {
			t.Errorf("n=%d: x=%d outside [1, %d]", n, x, maxDispatchDim)
		}
		if y < 1 || y > maxDispatchDim {
			t.Errorf("n=%d: y=%d outside [1, %d]", n, y, maxDispatchDim)
		}
		if covered := uint64(x) * uint64(y) * WorkgroupSize; covered < uint64(n) {
			t.Errorf("n=%d: grid (%d, %d) covers only %d invocations", n, x, y, covered)
		}
	}
}

func TestModeString(t *testing.T) {
	if ModeCPU.String() != "cpu" || ModeGPU.String() != "gpu" {
		t.Errorf("mode strings = %q, %q", ModeCPU.String(), ModeGPU.String())
	}
}
