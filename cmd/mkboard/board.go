//go:build !tinygo

package main

import (
	"bytes"
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"text/template"

	"github.com/pelletier/go-toml/v2"
)

var (
	errNoName        = errors.New("board: name is required")
	errTimerHz       = errors.New("board: timer_hz must be positive")
	errUnknownVector = errors.New("board: unknown vector")
	errDupVector     = errors.New("board: vector listed twice")
	errHandler       = errors.New("board: handler is not a Go identifier")
	errPanelAddr     = errors.New("board: panel_addr is not a 7-bit address")
	errSlab          = errors.New("board: slab name and type must be Go identifiers")
	errDupSlab       = errors.New("board: slab declared twice")
)

// vectorConsts maps board.toml vector names to hal constants.
var vectorConsts = map[string]string{
	"timer": "hal.VectorTimer",
	"twi":   "hal.VectorTWI",
}

type boardFile struct {
	Name        string      `toml:"name"`
	TimerHz     int         `toml:"timer_hz"`
	BeatDivider uint16      `toml:"beat_divider"`
	PanelAddr   uint16      `toml:"panel_addr"`
	Vectors     []vectorDef `toml:"vector"`
	Slabs       []slabDef   `toml:"slab"`
}

// slabDef reserves one slab.Static in the generated file.
type slabDef struct {
	Name string `toml:"name"`
	Type string `toml:"type"`
}

type vectorDef struct {
	Name    string `toml:"name"`
	Handler string `toml:"handler"`
}

// Const returns the hal constant for the vector.
func (v vectorDef) Const() string { return vectorConsts[v.Name] }

func parseBoard(data []byte) (*boardFile, error) {
	var b boardFile
	if err := toml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse board: %w", err)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return &b, nil
}

func (b *boardFile) validate() error {
	if b.Name == "" {
		return errNoName
	}
	if b.TimerHz <= 0 {
		return errTimerHz
	}
	if b.BeatDivider == 0 {
		b.BeatDivider = 1
	}
	if b.PanelAddr > 0x7F {
		return fmt.Errorf("%w: 0x%X", errPanelAddr, b.PanelAddr)
	}
	seen := make(map[string]bool, len(b.Vectors))
	for _, v := range b.Vectors {
		if _, ok := vectorConsts[v.Name]; !ok {
			return fmt.Errorf("%w: %q", errUnknownVector, v.Name)
		}
		if seen[v.Name] {
			return fmt.Errorf("%w: %q", errDupVector, v.Name)
		}
		seen[v.Name] = true
		if !token.IsIdentifier(v.Handler) {
			return fmt.Errorf("%w: %q", errHandler, v.Handler)
		}
	}
	names := make(map[string]bool, len(b.Slabs))
	for _, sd := range b.Slabs {
		if !token.IsIdentifier(sd.Name) || !token.IsIdentifier(sd.Type) {
			return fmt.Errorf("%w: %q %q", errSlab, sd.Name, sd.Type)
		}
		if names[sd.Name] {
			return fmt.Errorf("%w: %q", errDupSlab, sd.Name)
		}
		names[sd.Name] = true
	}
	return nil
}

var vectorsTmpl = template.Must(template.New("vectors").Parse(`// Code generated by mkboard from {{.Source}}. DO NOT EDIT.

package {{.Package}}

import (
	"fmt"

	"ember/hal"
{{- if .Board.Slabs}}
	"ember/slab"
{{- end}}
)

// Board is the board description compiled into the firmware.
var Board = BoardInfo{
	Name: {{printf "%q" .Board.Name}},
	TimerHz: {{.Board.TimerHz}},
	BeatDivider: {{.Board.BeatDivider}},
	PanelAddr: {{printf "0x%02X" .Board.PanelAddr}},
}
{{- if .Board.Slabs}}

// Static storage reserved for the firmware.
var (
{{- range .Board.Slabs}}
	{{.Name}} slab.Static[{{.Type}}]
{{- end}}
)
{{- end}}

func (s *System) attachVectors(ic hal.Interrupts) error {
{{- range .Board.Vectors}}
	if err := ic.Attach({{.Const}}, s.{{.Handler}}); err != nil {
		return fmt.Errorf("attach %s: %w", {{.Const}}, err)
	}
{{- end}}
	return nil
}
`))

func render(b *boardFile, pkg, source string) ([]byte, error) {
	var buf bytes.Buffer
	err := vectorsTmpl.Execute(&buf, struct {
		Board   *boardFile
		Package string
		Source  string
	}{b, pkg, source})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated code: %w", err)
	}
	return out, nil
}
