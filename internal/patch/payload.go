// Package patch は部分更新リクエストから単一のパラメータ化UPDATE文を組み立てる。
//
// リクエストのキーをそのままSQLへ流さず、リソースごとの許可リスト（Schema）で
// キー→カラム→値変換を解決する。値は必ず位置パラメータ（$n）で渡す。
package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject はリクエストボディがJSONオブジェクトでない場合のエラー。
var ErrNotObject = errors.New("request body must be a JSON object")

// SyntaxError はボディがJSONとして解釈できない場合のエラー。
type SyntaxError struct {
	Reason string
}

func (e *SyntaxError) Error() string {
	return "invalid JSON: " + e.Reason
}

// DuplicateKeyError は同一キーが複数回出現した場合のエラー。
type DuplicateKeyError struct {
	Key string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %q", e.Key)
}

// Payload はJSONオブジェクトのキー出現順と生の値を保持する。
// キーが存在しないこと（absent）と明示的なnullを区別できる。
type Payload struct {
	keys   []string
	values map[string]json.RawMessage
}

// DecodePayload はJSONオブジェクトをキー出現順を保ったまま読み込む。
func DecodePayload(r io.Reader) (*Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNotObject
		}
		return nil, &SyntaxError{Reason: err.Error()}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, ErrNotObject
	}

	p := &Payload{values: make(map[string]json.RawMessage)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, &SyntaxError{Reason: err.Error()}
		}
		key, ok := tok.(string)
		if !ok {
			return nil, &SyntaxError{Reason: fmt.Sprintf("unexpected token %v", tok)}
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &SyntaxError{Reason: fmt.Sprintf("value for %q: %v", key, err)}
		}
		if _, dup := p.values[key]; dup {
			return nil, &DuplicateKeyError{Key: key}
		}
		p.keys = append(p.keys, key)
		p.values[key] = raw
	}

	// 閉じ括弧
	if _, err := dec.Token(); err != nil {
		return nil, &SyntaxError{Reason: err.Error()}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &SyntaxError{Reason: "trailing data after object"}
	}

	return p, nil
}

// NewPayload はキー順を指定してPayloadを生成する。主にテストと内部利用向け。
func NewPayload(keys []string, values map[string]json.RawMessage) *Payload {
	p := &Payload{values: make(map[string]json.RawMessage, len(keys))}
	for _, k := range keys {
		if v, ok := values[k]; ok {
			if _, dup := p.values[k]; dup {
				continue
			}
			p.keys = append(p.keys, k)
			p.values[k] = v
		}
	}
	return p
}

// Keys はキーを出現順で返す。
func (p *Payload) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len はキー数を返す。
func (p *Payload) Len() int {
	return len(p.keys)
}

// Raw はキーに対応する生のJSON値を返す。
func (p *Payload) Raw(key string) (json.RawMessage, bool) {
	v, ok := p.values[key]
	return v, ok
}

// IsNull はキーが存在し、かつ値が明示的なnullであるかを返す。
func (p *Payload) IsNull(key string) bool {
	v, ok := p.values[key]
	return ok && isNull(v)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
