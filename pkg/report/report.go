package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/gokaycavdar/go-urlguard/pkg/models"
)

// Output formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned by Write for unsupported formats.
var ErrUnknownFormat = errors.New("unknown report format")

// Options tunes text rendering.
type Options struct {
	Color bool
}

// ValidateFormat reports ErrUnknownFormat for formats Write cannot render.
func ValidateFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatText, "", FormatJSON, FormatYAML, "yml":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Write renders res in the requested format.
func Write(w io.Writer, format string, res *models.AnalysisResult, opts Options) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		return Text(w, res, opts)
	case FormatJSON:
		return JSON(w, res)
	case FormatYAML, "yml":
		return YAML(w, res)
	default:
		return ValidateFormat(format)
	}
}

// JSON writes res as indented JSON.
func JSON(w io.Writer, res *models.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// YAML writes res as a YAML document.
func YAML(w io.Writer, res *models.AnalysisResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(res); err != nil {
		return err
	}
	return enc.Close()
}

// Text writes the verdict panel, the per-check list and the risk factors.
func Text(w io.Writer, res *models.AnalysisResult, opts Options) error {
	p := newPalette(opts.Color)
	b := &strings.Builder{}

	verdict := p.bad
	mark := "✗"
	if res.Status == models.StatusSafe {
		verdict = p.good
		mark = "✓"
	}

	fmt.Fprintf(b, "%s %s\n", verdict.Sprint(mark), verdict.Sprintf("%s (%d/100)", res.Status, res.SafetyScore))
	fmt.Fprintf(b, "URL:        %s\n", res.URL)
	fmt.Fprintf(b, "Confidence: %.0f%%\n", res.Confidence)
	fmt.Fprintf(b, "Analyzed:   %s\n", res.Timestamp)
	if h := res.Host; h != nil && h.Host != "" {
		fmt.Fprintf(b, "Host:       %s%s\n", h.Host, hostSuffix(h))
	}

	fmt.Fprintln(b)
	fmt.Fprintln(b, p.head.Sprint("Security checks"))
	for _, chk := range res.Checks {
		if chk.Passed {
			fmt.Fprintf(b, "  %s %s\n", p.good.Sprint("✓"), chk.Name)
		} else {
			fmt.Fprintf(b, "  %s %s\n", p.bad.Sprint("✗"), chk.Name)
		}
	}

	fmt.Fprintln(b)
	if len(res.RiskFactors) == 0 {
		fmt.Fprintf(b, "%s none\n", p.head.Sprint("Risk factors:"))
	} else {
		fmt.Fprintln(b, p.head.Sprint("Risk factors"))
		for _, f := range res.RiskFactors {
			fmt.Fprintf(b, "  %s %s\n", p.warn.Sprint("!"), f)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func hostSuffix(h *models.HostInfo) string {
	var parts []string
	if h.RegistrableDomain != "" && h.RegistrableDomain != h.Host {
		parts = append(parts, h.RegistrableDomain)
	}
	if h.IsIP {
		parts = append(parts, "ip literal")
	}
	if h.Country != "" {
		parts = append(parts, h.Country)
	}
	if h.Organization != "" {
		parts = append(parts, fmt.Sprintf("AS%d %s", h.ASN, h.Organization))
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

type palette struct {
	good, bad, warn, head *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		good: color.New(color.FgGreen, color.Bold),
		bad:  color.New(color.FgRed, color.Bold),
		warn: color.New(color.FgYellow),
		head: color.New(color.FgCyan, color.Bold),
	}
	for _, c := range []*color.Color{p.good, p.bad, p.warn, p.head} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}
