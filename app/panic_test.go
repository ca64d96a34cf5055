package app

import (
	"testing"

	"ember/kernel"
)

func TestPanicLines(t *testing.T) {
	got := panicLines(kernel.PanicInfo{
		TaskID: 3,
		Value:  "boom",
		Stack:  []byte("a\n\nb\n"),
		Stats:  kernel.Stats{Ticks: 9, Polls: 4},
	})
	want := []string{"ember panic:", "task: 3", "panic: boom", "after: ticks=9 polls=4", "stack:", "a", "b"}
	if len(got) != len(want) {
		t.Fatalf("panicLines() = %q, want %q", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("panicLines()[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	got = panicLines(kernel.PanicInfo{Value: 1})
	if last := got[len(got)-1]; last != "stack: unavailable" {
		t.Fatalf("last line = %q, want %q", last, "stack: unavailable")
	}
}

func TestTakeRunes(t *testing.T) {
	tests := []struct {
		s          string
		n          int16
		head, tail string
	}{
		{"hello", 2, "he", "llo"},
		{"hi", 5, "hi", ""},
		{"héllo", 2, "hé", "llo"},
		{"x", 0, "", "x"},
	}
	for _, tt := range tests {
		head, tail := takeRunes(tt.s, tt.n)
		if head != tt.head || tail != tt.tail {
			t.Fatalf("takeRunes(%q, %d) = %q, %q, want %q, %q", tt.s, tt.n, head, tail, tt.head, tt.tail)
		}
	}
}
