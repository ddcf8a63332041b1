package handler

import (
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

const (
	// imageFormField はアップロード画像のフォームフィールド名。
	imageFormField = "image"
	// multipartOverhead はファイル以外のパートに許容するバイト数。
	multipartOverhead = 1 << 20
	// multipartMemory を超えたパートは一時ファイルに書き出される。
	multipartMemory = 8 << 20
)

// uploadForm は解析済みのマルチパートフォーム。fileは未指定の場合nil。
type uploadForm struct {
	r        *http.Request
	file     multipart.File
	fileName string
}

// value はファイル以外のフォーム値を返す。
func (f *uploadForm) value(key string) string {
	return f.r.FormValue(key)
}

// Close は開いたファイルと一時ファイルを解放する。
func (f *uploadForm) Close() {
	if f.file != nil {
		f.file.Close()
	}
	if f.r.MultipartForm != nil {
		f.r.MultipartForm.RemoveAll()
	}
}

// isMultipart はリクエストがmultipart/form-dataかどうかを判定する。
func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseUploadForm はマルチパートフォームを解析する。
// ボディ全体の上限はmaxUploadSizeにmultipartOverheadを加えた値。
func parseUploadForm(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (*uploadForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, model.NewInvalidUploadError(fmt.Sprintf("file exceeds %d bytes", maxUploadSize))
		}
		return nil, model.NewInvalidRequestError("malformed multipart form")
	}

	form := &uploadForm{r: r}
	file, header, err := r.FormFile(imageFormField)
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		form.Close()
		return nil, model.NewInvalidRequestError("unreadable image part")
	default:
		form.file = file
		form.fileName = header.Filename
	}
	return form, nil
}
