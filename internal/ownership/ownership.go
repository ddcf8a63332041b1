// Package ownership はリソースの所有者と認証済みユーザーを照合する。
//
// 所有者の解決はリソース→サイト→ユーザーのオーナーチェーンを1回のクエリで辿る
// OwnerLookupに委譲し、変更系SQLの実行前に必ず呼び出す。
package ownership

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// OwnerLookup は対象リソースの所有ユーザーIDを1回のクエリで解決する。
// 行が存在しない場合はfound=falseを返す。
type OwnerLookup func(ctx context.Context) (ownerID string, found bool, err error)

// Authorize はprincipalIDが対象リソースの所有者であるかを判定する。
//
// 戻り値:
//   - nil: 所有者である
//   - 404 *model.APIError: リソースが存在しない
//   - 403 *model.APIError: 所有者ではない
//   - その他のerror: 照会クエリの失敗（500として扱う）
func Authorize(ctx context.Context, resource model.Resource, id string, lookup OwnerLookup, principalID string) error {
	// UUIDとして解釈できないIDは該当行なしとして扱う
	if !ValidID(id) {
		return model.NewNotFoundError(resource, id)
	}

	ownerID, found, err := lookup(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve %s owner: %w", resource, err)
	}
	if !found {
		return model.NewNotFoundError(resource, id)
	}
	if principalID == "" || ownerID != principalID {
		return model.NewForbiddenError(resource)
	}
	return nil
}

// ValidID はidがUUIDとして解釈できるかを返す。
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
