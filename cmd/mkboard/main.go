//go:build !tinygo

// Command mkboard generates the firmware's vector table and board
// constants from a board.toml description.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "mkboard",
		Usage: "generate the vector table from a board description",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "in",
				Value: "board.toml",
				Usage: "board description",
			},
			&cli.StringFlag{
				Name:  "out",
				Value: "vectors_gen.go",
				Usage: "generated Go file (- for stdout)",
			},
			&cli.StringFlag{
				Name:  "package",
				Value: "app",
				Usage: "package of the generated file",
			},
			&cli.BoolFlag{
				Name:  "check",
				Usage: "fail if the output file is out of date instead of writing it",
			},
		},
		Action: generate,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func generate(c *cli.Context) error {
	in := c.String("in")
	data, err := os.ReadFile(in)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read %s: %v", in, err), 1)
	}
	b, err := parseBoard(data)
	if err != nil {
		return cli.Exit(fmt.Sprintf("%s: %v", in, err), 1)
	}
	src, err := render(b, c.String("package"), filepath.Base(in))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	out := c.String("out")
	if out == "-" {
		_, err := os.Stdout.Write(src)
		return err
	}
	if c.Bool("check") {
		cur, err := os.ReadFile(out)
		if err != nil {
			return cli.Exit(fmt.Sprintf("read %s: %v", out, err), 1)
		}
		if string(cur) != string(src) {
			return cli.Exit(fmt.Sprintf("%s is out of date; run go generate", out), 1)
		}
		return nil
	}
	if err := os.WriteFile(out, src, 0o644); err != nil {
		return cli.Exit(fmt.Sprintf("write %s: %v", out, err), 1)
	}
	return nil
}
