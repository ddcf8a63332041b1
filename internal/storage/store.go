// Package storage はアップロード画像とエクスポート成果物をディスクに保存する。
//
// 保存先はUPLOAD_DIR配下で、公開URLは /uploads/ 配下の相対パスとなる。
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// URLPrefix は保存ファイルの公開URLの接頭辞。
const URLPrefix = "/uploads/"

// ThumbnailWidth はサムネイルの幅（px）。
const ThumbnailWidth = 480

// thumbPrefix はサムネイルのファイル名接頭辞。
const thumbPrefix = "thumb_"

// allowedTypes は受け付ける画像形式と保存時の拡張子。
var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
}

// Stored は保存済みファイルの情報。
type Stored struct {
	Key      string // 保存先のファイル名。削除はこの値で行う
	URL      string
	FileName string // 元のファイル名
	MimeType string
	Width    int
	Height   int
	Size     int64
}

// Store はディスクへのファイル保存を行う。
type Store struct {
	dir     string
	maxSize int64
}

// NewStore はStoreを生成する。maxSizeは1ファイルあたりの上限バイト数。
func NewStore(dir string, maxSize int64) *Store {
	return &Store{dir: dir, maxSize: maxSize}
}

// Dir は保存先ディレクトリを返す。静的配信に使用する。
func (s *Store) Dir() string {
	return s.dir
}

// MaxSize は1ファイルあたりの上限バイト数を返す。
func (s *Store) MaxSize() int64 {
	return s.maxSize
}

// SaveImage は画像を検証して保存し、480px幅のサムネイルを併せて書き出す。
// 形式はファイル内容から判定し、拡張子やContent-Typeヘッダーは信用しない。
func (s *Store) SaveImage(ctx context.Context, r io.Reader, originalName string) (*Stored, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return nil, model.NewInvalidUploadError("file is empty")
	}
	if int64(len(data)) > s.maxSize {
		return nil, model.NewInvalidUploadError(fmt.Sprintf("file exceeds %d bytes", s.maxSize))
	}

	mimeType := http.DetectContentType(data)
	ext, ok := allowedTypes[mimeType]
	if !ok {
		return nil, model.NewInvalidUploadError("only JPEG, PNG and GIF images are accepted")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewInvalidUploadError("image could not be decoded")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}

	name := uuid.New().String() + ext
	dst := filepath.Join(s.dir, name)
	if err := os.WriteFile(dst, data, 0o640); err != nil {
		return nil, fmt.Errorf("failed to write upload: %w", err)
	}

	if err := writeThumbnail(img, filepath.Join(s.dir, thumbPrefix+name)); err != nil {
		_ = os.Remove(dst)
		return nil, err
	}

	b := img.Bounds()
	return &Stored{
		Key:      name,
		URL:      URLPrefix + name,
		FileName: filepath.Base(originalName),
		MimeType: mimeType,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Size:     int64(len(data)),
	}, nil
}

func writeThumbnail(img image.Image, dst string) error {
	thumb := img
	if img.Bounds().Dx() > ThumbnailWidth {
		thumb = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	if err := imaging.Save(thumb, dst); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

// Delete はSaveImageが返したKeyのファイルとサムネイルを削除する。
// 公開URLは利用者が書き換えられるため削除対象の特定には使わない。
// 不正な形式のキーや既に存在しないファイルは無視する。失敗しても行の削除は取り消さないため、
// 呼び出し側はエラーをログに残すだけでよい。
func (s *Store) Delete(key string) error {
	if !validKey(key) {
		return nil
	}

	var errs []error
	for _, p := range []string{key, thumbPrefix + key} {
		if err := os.Remove(filepath.Join(s.dir, p)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DeleteAll は複数キーのファイルを削除し、失敗をログに記録する。
func (s *Store) DeleteAll(keys []string) {
	for _, k := range keys {
		if err := s.Delete(k); err != nil {
			slog.Warn("failed to remove stored file",
				slog.String("file_key", k),
				slog.String("error", err.Error()),
			)
		}
	}
}

// validKey はキーが <uuid>.<ext> 形式の保存ファイル名であることを確認する。
func validKey(key string) bool {
	ext := path.Ext(key)
	if !allowedExt(ext) {
		return false
	}
	base := strings.TrimSuffix(key, ext)
	id, err := uuid.Parse(base)
	return err == nil && id.String() == base
}

func allowedExt(ext string) bool {
	for _, e := range allowedTypes {
		if e == ext {
			return true
		}
	}
	return false
}
