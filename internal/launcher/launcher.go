// Package launcher generates the small Python scripts installed in place of
// multi-file packages.
package launcher

import (
	"fmt"
	"strings"

	"github.com/ZebulonRouseFrantzich/pget/internal/installroot"
)

// Shebang is the interpreter declaration written at the top of every
// installed script.
const Shebang = "#!/usr/bin/env python3\n"

// EntrypointModule and EntrypointFunc name what the launcher imports and calls.
const (
	EntrypointModule = "main"
	EntrypointFunc   = "main"
)

const template = `%simport sys
import os
from pathlib import Path

app_files_dir = Path(__file__).resolve().parent / %s
sys.path.insert(0, str(app_files_dir))

from %s import %s
if __name__ == '__main__':
    %s()
`

// Synthesize returns the launcher script for name. The script locates the
// sibling "<name>_files" directory, puts it first on sys.path and runs the
// package entrypoint.
func Synthesize(name string) string {
	return fmt.Sprintf(template,
		Shebang,
		pyString(name+installroot.SidecarSuffix),
		EntrypointModule, EntrypointFunc, EntrypointFunc)
}

// Script returns the content of a single-file entry.
func Script(body string) string {
	return Shebang + body
}

// pyString quotes s as a Python string literal.
func pyString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\', '"':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
