package report

import (
	"fmt"
	"io"
	"strings"
)

const barWidth = 30

// ProgressLine renders "[#####.....]  45% Domain Reputation Check".
func ProgressLine(progress int, check string) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * barWidth / 100
	return fmt.Sprintf("[%s%s] %3d%% %s", strings.Repeat("#", filled), strings.Repeat(".", barWidth-filled), progress, check)
}

// WriteProgress overwrites the current terminal line with a progress bar.
func WriteProgress(w io.Writer, progress int, check string) {
	fmt.Fprintf(w, "\r%s", ProgressLine(progress, check))
	if progress >= 100 {
		fmt.Fprintln(w)
	}
}
