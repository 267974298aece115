package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Package walks dir recursively and writes every regular file into a zip
// archive next to it, preserving paths relative to dir. Membership is
// deterministic; byte-for-byte output is not.
func Package(dir string) (string, error) {
	zipPath := filepath.Clean(dir) + ".zip"

	out, err := os.Create(zipPath)
	if err != nil {
		return "", errors.Wrap(err, "failed to create archive")
	}
	defer out.Close()

	w := zip.NewWriter(out)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		entry, err := w.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()

		_, err = io.Copy(entry, f)
		return err
	})
	if err != nil {
		w.Close()
		return "", errors.Wrap(err, "failed to write archive")
	}

	if err := w.Close(); err != nil {
		return "", errors.Wrap(err, "failed to finalize archive")
	}

	return zipPath, nil
}

// Extract unpacks a zip archive into destDir. Entries escaping destDir are
// rejected.
func Extract(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return errors.Wrap(err, "failed to open archive")
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, filepath.Clean(f.Name))
		rel, err := filepath.Rel(destDir, target)
		if err != nil || rel == ".." || filepath.IsAbs(rel) || len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator) {
			return errors.Errorf("archive entry escapes destination: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrap(err, "failed to create directory")
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrap(err, "failed to create directory")
		}

		if err := extractFile(f, target); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return errors.Wrap(err, "failed to open archive entry")
	}
	defer rc.Close()

	out, err := os.Create(target)
	if err != nil {
		return errors.Wrap(err, "failed to create file")
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return errors.Wrap(err, "failed to write file")
	}
	return nil
}
