package system

import (
	"context"
	"testing"
)

func TestSample(t *testing.T) {
	v, err := Sample(context.Background(), t.TempDir())
	if err != nil {
		t.Skipf("host metrics unavailable: %v", err)
	}

	for name, pct := range map[string]float64{
		"cpu":  v.CPUPercent,
		"mem":  v.MemPercent,
		"disk": v.DiskPercent,
	} {
		if pct < 0 || pct > 100 {
			t.Errorf("%s percent out of range: %v", name, pct)
		}
	}
}
