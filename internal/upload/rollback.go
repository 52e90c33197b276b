package upload

import (
	"errors"
	"io/fs"
	"log/slog"
)

// rollback removes a file that was written but failed to decode. Removal is
// best-effort: failures are logged and never replace the decode error.
func (in *Ingestor) rollback(project string, name string, cause error) {
	slog.Warn("Rejecting undecodable upload", "project", project, "name", name, "err", cause)

	if err := in.engine.Remove(project, name); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Rollback failed to remove file", "project", project, "name", name, "err", err)
	}
}
