package pipeline

import (
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/ankit-chaubey/photometa/core"
)

// backupPath is "<full filename>.bak" per §5 — appended to the whole
// filename, not substituted for the extension, so "photo.jpg" backs up to
// "photo.jpg.bak".
func backupPath(path string) string {
	return path + ".bak"
}

// backupFile copies path to its .bak sibling, skipping the copy if one
// already exists (the codec never overwrites a prior backup). Runs strictly
// before any in-place write, so a crash mid-write never loses the
// pre-existing backup. A failure here is a warning, not fatal — per §7's
// recovery table, backup IoError never aborts the write.
func backupFile(path string) error {
	dst := backupPath(path)
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	src, err := os.Open(path)
	if err != nil {
		return core.NewError(core.ErrIO, "failed to open original for backup", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return core.NewError(core.ErrIO, "failed to create backup file", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return core.NewError(core.ErrIO, "failed to copy backup contents", err)
	}
	log.Debug().Str("backup", dst).Msg("backup created")
	return nil
}
