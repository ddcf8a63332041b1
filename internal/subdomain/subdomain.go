// Package subdomain はユーザー名からサイトのサブドメインを生成し、一意に確保する。
package subdomain

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxAttempts は確保を試みる候補数の上限。
const MaxAttempts = 50

// fallbackBase は正規化後に空になった場合の基底トークン。
const fallbackBase = "site"

// ErrTaken は挿入時に一意制約違反が発生したことを示す。
// insert関数はこのエラーを返すことで次の候補での再試行を要求する。
var ErrTaken = errors.New("subdomain already taken")

// ErrExhausted はMaxAttempts回の候補すべてが使用済みだった場合のエラー。
var ErrExhausted = errors.New("no available subdomain")

// Base はユーザー名を小文字化し、[a-z0-9]以外を取り除いた基底トークンを返す。
func Base(username string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(username) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallbackBase
	}
	return b.String()
}

// Candidate はn番目の候補を返す。0は基底トークンそのもの。
func Candidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + strconv.Itoa(n)
}

// LookupFunc は候補が既に使用されているかを確認する。
type LookupFunc func(ctx context.Context, candidate string) (taken bool, err error)

// InsertFunc は候補で行を挿入する。一意制約違反の場合はErrTakenを返す。
type InsertFunc func(ctx context.Context, candidate string) error

// Reserve は空いている最初の候補で挿入を行い、確保したサブドメインを返す。
//
// 事前の存在確認は最適化にすぎず、並行登録との競合はストレージ側の一意制約で検出する。
// insertがErrTakenを返した場合は次のサフィックスで再試行する。
func Reserve(ctx context.Context, base string, lookup LookupFunc, insert InsertFunc) (string, error) {
	for n := 0; n < MaxAttempts; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		candidate := Candidate(base, n)
		taken, err := lookup(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to look up subdomain %q: %w", candidate, err)
		}
		if taken {
			continue
		}

		err = insert(ctx, candidate)
		if errors.Is(err, ErrTaken) {
			continue
		}
		if err != nil {
			return "", err
		}
		return candidate, nil
	}
	return "", fmt.Errorf("%w for base %q after %d attempts", ErrExhausted, base, MaxAttempts)
}
