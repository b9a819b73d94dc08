package artifacts

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// buildShareZip bundles the given generated files plus the request's photos
// and signature into one zip for chat upload. Missing inputs are skipped;
// the bundle always includes whatever exists.
func (g *Generator) buildShareZip(snap Snapshot, files []string) (string, error) {
	out := g.layout.Path(snap.Request.ID, KindShareZip)

	f, err := os.Create(out)
	if err != nil {
		return "", fmt.Errorf("create zip %s: %w", out, err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	for _, path := range files {
		if path == "" {
			continue
		}
		if err := addZipEntry(zw, path, filepath.Base(path)); err != nil {
			return "", err
		}
	}
	for _, p := range snap.Photos {
		name := filepath.Join("photos", filepath.Base(p.Path))
		if err := addZipEntry(zw, p.Path, name); err != nil {
			return "", err
		}
	}
	if sig := snap.Request.SignaturePath; sig != "" {
		if err := addZipEntry(zw, sig, filepath.Join("sign", filepath.Base(sig))); err != nil {
			return "", err
		}
	}

	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("finalize zip %s: %w", out, err)
	}
	return out, nil
}

func addZipEntry(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	w, err := zw.Create(filepath.ToSlash(name))
	if err != nil {
		return fmt.Errorf("add zip entry %s: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}
