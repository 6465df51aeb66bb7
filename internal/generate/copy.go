package generate

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// mirrorDir recursively copies the contents of src into dst. A missing src
// is not an error.
func (g *Generator) mirrorDir(ctx context.Context, src, dst string) (int, error) {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		g.log.Debug().Str("dir", src).Msg("directory not found, skipping copy")
		return 0, nil
	}
	copied := 0
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("relative path for %s: %w", p, err)
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			if err := os.MkdirAll(target, os.ModePerm); err != nil {
				return fmt.Errorf("create directory %s: %w", target, err)
			}
			return nil
		}
		if err := g.copyFile(p, target); err != nil {
			return err
		}
		copied++
		return nil
	})
	return copied, err
}

// copyFile copies srcFile to dstFile, keeping the source permissions when it can.
func (g *Generator) copyFile(srcFile, dstFile string) error {
	in, err := os.Open(srcFile)
	if err != nil {
		return fmt.Errorf("open %s: %w", srcFile, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dstFile), os.ModePerm); err != nil {
		return fmt.Errorf("create directory for %s: %w", dstFile, err)
	}
	out, err := os.Create(dstFile)
	if err != nil {
		return fmt.Errorf("create %s: %w", dstFile, err)
	}
	if err := copyAndClose(out, in); err != nil {
		return fmt.Errorf("copy %s to %s: %w", srcFile, dstFile, err)
	}

	info, err := in.Stat()
	if err != nil {
		g.log.Warn().Err(err).Str("file", srcFile).Msg("could not stat source to keep permissions")
		return nil
	}
	if err := os.Chmod(dstFile, info.Mode()); err != nil {
		g.log.Warn().Err(err).Str("file", dstFile).Msg("could not set permissions")
	}
	return nil
}

// copyAndClose copies in to out and closes out. A failed close is reported
// since it can mean the data never reached the disk.
func copyAndClose(out io.WriteCloser, in io.Reader) error {
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
