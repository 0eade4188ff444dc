package cmd

import (
	"io"

	"github.com/common-nighthawk/go-figure"
	"github.com/fatih/color"
)

func printBanner(w io.Writer) {
	fig := figure.NewFigure("URLGUARD", "doom", true)
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)

	_, _ = cyan.Fprint(w, fig.String())
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
	_, _ = green.Fprintf(w, "    URL threat analysis | %s\n", version)
	_, _ = cyan.Fprintln(w, "════════════════════════════════════════════════")
}
