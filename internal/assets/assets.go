// Package assets holds the embedded conversion script and its companion
// resources, and materializes them to the filesystem for the interpreter.
package assets

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

//go:embed convert.py
var scriptText string

//go:embed cwpdf_logo.png
var logoBytes []byte

//go:embed notice.md
var noticeText string

// Script returns the embedded conversion script text.
func Script() string { return scriptText }

// Notice returns the about/license text shown in the UI.
func Notice() string { return noticeText }

// Well-known file names under the OS temp directory. The script resolves the
// logo relative to its own location, so both land in the same directory.
const (
	scriptFileName = "cwpdf_convert.py"
	logoFileName   = "cwpdf_logo.png"
)

var materialize struct {
	once sync.Once
	path string
	err  error
}

// Materialize writes the script and logo into the temp directory and returns
// the script path. The write happens once per process; later calls reuse the
// first result.
func Materialize() (string, error) {
	materialize.once.Do(func() {
		dir := os.TempDir()
		script := filepath.Join(dir, scriptFileName)
		if err := os.WriteFile(script, []byte(scriptText), 0o644); err != nil {
			materialize.err = fmt.Errorf("write conversion script: %w", err)
			return
		}
		if err := os.WriteFile(filepath.Join(dir, logoFileName), logoBytes, 0o644); err != nil {
			materialize.err = fmt.Errorf("write logo: %w", err)
			return
		}
		materialize.path = script
	})
	return materialize.path, materialize.err
}
