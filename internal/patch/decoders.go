package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Decoder は非nullの生JSON値をドライバに渡す値へ変換する。
// nullの扱いはField.NotNullに従いBuild側で処理されるため、Decoderには渡らない。
type Decoder func(raw json.RawMessage) (any, error)

// DateLayout はプロジェクト日付などのISO 8601日付書式。
const DateLayout = "2006-01-02"

// Text は文字列値を受け付ける。
func Text(raw json.RawMessage) (any, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.New("must be a string")
	}
	return s, nil
}

// NonEmptyText は前後の空白を除いて空でない文字列を受け付ける。
func NonEmptyText(raw json.RawMessage) (any, error) {
	v, err := Text(raw)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(v.(string))
	if s == "" {
		return nil, errors.New("must not be empty")
	}
	return s, nil
}

// TextWith は文字列をfnで変換してから受け付けるDecoderを返す。
// HTMLサニタイズなど、永続化前の正規化に使う。
func TextWith(fn func(string) string) Decoder {
	return func(raw json.RawMessage) (any, error) {
		v, err := Text(raw)
		if err != nil {
			return nil, err
		}
		return fn(v.(string)), nil
	}
}

// TextArray は文字列配列を受け付け、pq.Arrayとして返す。
func TextArray(raw json.RawMessage) (any, error) {
	var ss []string
	if err := json.Unmarshal(raw, &ss); err != nil {
		return nil, errors.New("must be an array of strings")
	}
	if ss == nil {
		ss = []string{}
	}
	return pq.Array(ss), nil
}

// UUID はUUID文字列を受け付ける。
func UUID(raw json.RawMessage) (any, error) {
	v, err := Text(raw)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(v.(string))
	if err != nil {
		return nil, errors.New("must be a UUID")
	}
	return id.String(), nil
}

// Date はYYYY-MM-DD形式の日付文字列を受け付ける。
func Date(raw json.RawMessage) (any, error) {
	v, err := Text(raw)
	if err != nil {
		return nil, err
	}
	s := v.(string)
	if _, err := time.Parse(DateLayout, s); err != nil {
		return nil, fmt.Errorf("must be a date in %s format", "YYYY-MM-DD")
	}
	return s, nil
}

// Int は整数値を受け付ける。
func Int(raw json.RawMessage) (any, error) {
	// json.Numberは数値形式の文字列も受け付けるため、先に文字列を除外する
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '"' {
		return nil, errors.New("must be an integer")
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, errors.New("must be an integer")
	}
	i, err := n.Int64()
	if err != nil {
		return nil, errors.New("must be an integer")
	}
	return i, nil
}

// TextChecked は文字列をcheckで検証してから受け付けるDecoderを返す。
func TextChecked(check func(string) error) Decoder {
	return func(raw json.RawMessage) (any, error) {
		v, err := Text(raw)
		if err != nil {
			return nil, err
		}
		if err := check(v.(string)); err != nil {
			return nil, err
		}
		return v, nil
	}
}
