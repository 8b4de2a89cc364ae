// Package cliutil holds output helpers shared by the schemabuilder commands.
package cliutil

import (
	"fmt"
	"io"
	"os"
)

// Writef writes a formatted report or usage line to w. Write failures are
// reported on stderr since the commands have nowhere else to send them.
func Writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "write error: %v\n", err)
	}
}
