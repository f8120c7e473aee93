package restyutil

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
)

var unsafeIdRegex = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// FilesystemOutput writes each dumped message to its own file under a directory, which is
// useful for diffing what the upstream returned between two runs.
type FilesystemOutput struct {
	directory string
}

// NewFilesystemOutput clears `dir` and recreates it.
func NewFilesystemOutput(dir string) (FilesystemOutput, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return FilesystemOutput{}, err
	}
	err = os.RemoveAll(dir)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("clear dump dir: %w", err)
	}
	err = os.MkdirAll(dir, 0777)
	if err != nil {
		return FilesystemOutput{}, fmt.Errorf("create dump dir: %w", err)
	}
	return FilesystemOutput{directory: dir}, nil
}

func (o FilesystemOutput) Write(id string, contents string) {
	name := unsafeIdRegex.ReplaceAllString(id, "_") + ".txt"
	err := os.WriteFile(filepath.Join(o.directory, name), []byte(contents), 0600)
	if err != nil {
		slog.Warn("failed to write message info file", "id", id, "err", err)
	}
}
