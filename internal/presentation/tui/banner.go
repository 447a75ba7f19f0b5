package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner shown when interactive play
// starts.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Amber-to-violet gradient, one color per line
	lines := []struct {
		text  string
		color string
	}{
		{` _____    _ _  _  _____     _      `, "#fbbf24"},
		{`|_   _|__| | |/ \|_   _|_ _| | ___ `, "#f59e0b"},
		{`  | |/ _ \ | / _ \ | |/ _` + "`" + ` | |/ _ \`, "#e879f9"},
		{`  | |  __/ | / ___ \| | (_| | |  __/`, "#c084fc"},
		{`  |_|\___|_|_/_/  \_\_|\__,_|_|\___|`, "#a78bfa"},
	}

	fmt.Println()
	for _, line := range lines {
		fmt.Println(termenv.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Println()
}
