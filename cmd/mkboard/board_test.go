//go:build !tinygo

package main

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestGeneratedVectorsUpToDate(t *testing.T) {
	data, err := os.ReadFile("../../app/board.toml")
	if err != nil {
		t.Fatalf("ReadFile(board.toml) = %v", err)
	}
	b, err := parseBoard(data)
	if err != nil {
		t.Fatalf("parseBoard() = %v, want nil", err)
	}
	got, err := render(b, "app", "board.toml")
	if err != nil {
		t.Fatalf("render() = %v, want nil", err)
	}
	want, err := os.ReadFile("../../app/vectors_gen.go")
	if err != nil {
		t.Fatalf("ReadFile(vectors_gen.go) = %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("app/vectors_gen.go is stale; generated:\n%s", got)
	}
}

func TestParseBoard(t *testing.T) {
	b, err := parseBoard([]byte(`
name = "uno"
timer_hz = 4
panel_addr = 0x3C

[[vector]]
name = "twi"
handler = "onTWI"
`))
	if err != nil {
		t.Fatalf("parseBoard() = %v, want nil", err)
	}
	if b.Name != "uno" || b.TimerHz != 4 || b.PanelAddr != 0x3C || b.BeatDivider != 1 {
		t.Fatalf("parseBoard() = %+v", b)
	}
	if len(b.Vectors) != 1 || b.Vectors[0].Const() != "hal.VectorTWI" {
		t.Fatalf("Vectors = %+v, want one twi vector", b.Vectors)
	}

	src, err := render(b, "fw", "uno.toml")
	if err != nil {
		t.Fatalf("render() = %v, want nil", err)
	}
	for _, want := range []string{"package fw", "from uno.toml", "s.onTWI", `"uno"`} {
		if !strings.Contains(string(src), want) {
			t.Fatalf("render() missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(string(src), "VectorTimer") {
		t.Fatalf("render() attached an unlisted vector:\n%s", src)
	}
}

func TestParseBoardErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"no name", `timer_hz = 1`, errNoName},
		{"no timer", `name = "x"`, errTimerHz},
		{"bad addr", "name = \"x\"\ntimer_hz = 1\npanel_addr = 0x80", errPanelAddr},
		{"unknown vector", "name = \"x\"\ntimer_hz = 1\n[[vector]]\nname = \"uart\"\nhandler = \"h\"", errUnknownVector},
		{"duplicate", "name = \"x\"\ntimer_hz = 1\n[[vector]]\nname = \"twi\"\nhandler = \"a\"\n[[vector]]\nname = \"twi\"\nhandler = \"b\"", errDupVector},
		{"bad handler", "name = \"x\"\ntimer_hz = 1\n[[vector]]\nname = \"twi\"\nhandler = \"on TWI\"", errHandler},
		{"bad slab", "name = \"x\"\ntimer_hz = 1\n[[slab]]\nname = \"m\"\ntype = \"[4]byte\"", errSlab},
		{"duplicate slab", "name = \"x\"\ntimer_hz = 1\n[[slab]]\nname = \"m\"\ntype = \"T\"\n[[slab]]\nname = \"m\"\ntype = \"U\"", errDupSlab},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseBoard([]byte(tt.src)); !errors.Is(err, tt.want) {
				t.Fatalf("parseBoard() = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := parseBoard([]byte("name = ")); err == nil {
		t.Fatalf("parseBoard(invalid toml) = nil, want error")
	}
}
