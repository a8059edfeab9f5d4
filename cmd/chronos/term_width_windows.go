//go:build windows

package main

import (
	"os"
	"strconv"
)

// detectTerminalWidth reads $COLUMNS only. app.options keeps the renderer's
// default column width when it returns 0.
func detectTerminalWidth() int {
	if cols, ok := os.LookupEnv("COLUMNS"); ok {
		if n, err := strconv.Atoi(cols); err == nil && n > 0 {
			return n
		}
	}
	return 0
}
