package storage

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// exportDir はエクスポート成果物の保存先サブディレクトリ。
const exportDir = "exports"

// placeholderIndex はエクスポートZIPに格納する固定のindex.html。
// サイト内容は反映しない。
const placeholderIndex = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Portfolio</title>
</head>
<body>
  <main>
    <h1>Portfolio</h1>
    <p>This site was exported from PortfolioPro.</p>
  </main>
</body>
</html>
`

// WriteExport はサイトのエクスポートZIPを書き出し、公開URLを返す。
// ファイル名は <site_id>-<unix秒>.zip。
func (s *Store) WriteExport(siteID string, now time.Time) (string, error) {
	dir := filepath.Join(s.dir, exportDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	name := fmt.Sprintf("%s-%d.zip", siteID, now.Unix())
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if err := writeExportArchive(f, now); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	return URLPrefix + exportDir + "/" + name, nil
}

func writeExportArchive(f *os.File, now time.Time) error {
	zw := zip.NewWriter(f)
	w, err := zw.CreateHeader(&zip.FileHeader{
		Name:     "index.html",
		Method:   zip.Deflate,
		Modified: now,
	})
	if err != nil {
		return fmt.Errorf("failed to add index.html: %w", err)
	}
	if _, err := w.Write([]byte(placeholderIndex)); err != nil {
		return fmt.Errorf("failed to write index.html: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize export archive: %w", err)
	}
	return nil
}
