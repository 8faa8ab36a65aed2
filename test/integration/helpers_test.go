//go:build integration
// +build integration

package integration

import (
	"fmt"
	"testing"

	"github.com/fatih/color"
)

// Color formatters
var (
	stepFmt = color.New(color.FgBlue, color.Bold).SprintFunc()
	okFmt   = color.New(color.FgGreen).SprintFunc()
	infoFmt = color.New(color.FgYellow).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

func init() {
	// Force colors even when output is not a TTY (e.g., over SSH)
	color.NoColor = false
}

var stepCounter int

func logStep(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	stepCounter++
	fmt.Printf("\n%s %s\n", stepFmt(fmt.Sprintf("[step %d]", stepCounter)), fmt.Sprintf(format, args...))
}

func logOK(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	fmt.Printf("  %s %s\n", okFmt("✓"), fmt.Sprintf(format, args...))
}

func logInfo(t *testing.T, format string, args ...interface{}) {
	t.Helper()
	fmt.Printf("  %s %s\n", infoFmt("•"), fmt.Sprintf(format, args...))
}
