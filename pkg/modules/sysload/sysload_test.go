package sysload

import (
	"context"
	"errors"
	"testing"

	"gitlab.com/tinyland/lab/cc-statusline/pkg/modules"
)

func TestFormat(t *testing.T) {
	st := Stats{CPUPercent: 12.4, MemUsed: 3_200_000_000, MemPercent: 40, Load1: 1.5}
	tests := []struct {
		name string
		st   Stats
		show string
		want string
	}{
		{"default", st, "cpu,mem", "CPU 12% 3.2 GB"},
		{"load only", st, "load", "1.50"},
		{"spaces and order", st, " mem , cpu ", "3.2 GB CPU 12%"},
		{"skip missing", Stats{MemUsed: 1_000_000, Missing: []string{"cpu"}}, "cpu,mem", "1.0 MB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Format(tt.st, tt.show)
			if err != nil || got != tt.want {
				t.Errorf("Format = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestFormatErrors(t *testing.T) {
	if _, err := Format(Stats{}, "cpu,disk"); err == nil {
		t.Error("unknown field: expected error")
	}
	if _, err := Format(Stats{Missing: []string{"cpu", "mem"}}, "cpu,mem"); err == nil {
		t.Error("nothing sampled: expected error")
	}
}

func TestEvaluateWithSampler(t *testing.T) {
	m := &Module{sample: func(context.Context) (Stats, error) {
		return Stats{CPUPercent: 99.6, MemUsed: 512}, nil
	}}
	got, err := m.Evaluate(context.Background(), modules.Options{"show": "cpu,mem"})
	if err != nil || got != "CPU 100% 512 B" {
		t.Errorf("Evaluate = %q, %v", got, err)
	}

	m.sample = func(context.Context) (Stats, error) { return Stats{}, errors.New("unsupported") }
	if _, err := m.Evaluate(context.Background(), nil); err == nil {
		t.Error("sampler failure: expected error")
	}
}

func TestSampleLive(t *testing.T) {
	st, err := Sample(context.Background())
	if err != nil {
		t.Skipf("gopsutil unsupported here: %v", err)
	}
	if st.CPUPercent < 0 || st.CPUPercent > 100 {
		t.Errorf("CPUPercent = %v", st.CPUPercent)
	}
}
