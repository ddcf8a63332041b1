package handler

import (
	"net/http"

	"github.com/portfoliopro/portfoliopro/internal/help"
)

// ListDocs はエディタのヘルプドキュメント一覧を返す。認証不要。
// GET /api/help/docs
func ListDocs(w http.ResponseWriter, r *http.Request) {
	writeList(w, help.Docs())
}
