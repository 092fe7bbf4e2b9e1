package commands

import (
	"strings"
	"testing"

	"github.com/haivivi/bipbuf/pkg/buffer"
)

func TestBench(t *testing.T) {
	for _, mode := range []string{BenchStream, BenchReserve} {
		mode := mode
		t.Run(mode, func(t *testing.T) {
			cfg := setupTestEnv(t)

			stdout, _, err := runCmd(t, cfg, "", "bench", "--mode", mode, "--total", "1M", "--chunk", "4K", "-o", "json", "-q", ".bytes, .mode")
			if err != nil {
				t.Fatal(err)
			}
			if want := "1048576\n\"" + mode + "\"\n"; stdout != want {
				t.Fatalf("bench output = %q, want %q", stdout, want)
			}
		})
	}
}

func TestBench_Human(t *testing.T) {
	cfg := setupTestEnv(t)

	stdout, _, err := runCmd(t, cfg, "", "bench", "--total", "256K")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(stdout, "stream: 256.00 KB in ") {
		t.Fatalf("bench output = %q", stdout)
	}
}

func TestBench_Errors(t *testing.T) {
	cfg := setupTestEnv(t)

	tests := [][]string{
		{"bench", "--mode", "mmap"},
		{"bench", "--total", "0"},
		{"bench", "--chunk", "x"},
	}
	for _, args := range tests {
		if _, _, err := runCmd(t, cfg, "", args...); err == nil {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestBenchReserve_NoGrowth(t *testing.T) {
	bb, err := buffer.New(4096, 4096)
	if err != nil {
		t.Fatal(err)
	}
	n, err := benchReserve(bb, 1<<20, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1<<20 {
		t.Fatalf("moved %d bytes, want %d", n, 1<<20)
	}
	if s := bb.Stats(); s.Grows != 0 || s.Used != 0 {
		t.Fatalf("stats after bench: %+v", s)
	}
}
