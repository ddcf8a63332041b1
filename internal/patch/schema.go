package patch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/portfoliopro/portfoliopro/internal/model"
)

// ErrNoFields はSET句に設定するフィールドが1つもない場合のエラー。
// 退化したUPDATE（updated_atのみ）は発行しない。
var ErrNoFields = errors.New("no updatable fields")

// errNoPredicate はWHERE句のないUPDATEを防ぐための内部エラー。
var errNoPredicate = errors.New("update requires at least one predicate")

// UnknownFieldsError は許可リストにないキーを含むペイロードのエラー。
type UnknownFieldsError struct {
	Keys []string
}

func (e *UnknownFieldsError) Error() string {
	return fmt.Sprintf("unknown fields: %s", strings.Join(e.Keys, ", "))
}

// FieldError は個別フィールドの値が不正な場合のエラー。
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

// Field はJSONキー1つに対応するカラムと値変換を表す。
type Field struct {
	Column  string
	Decode  Decoder
	NotNull bool // trueの場合、明示的なnullを拒否する
}

// Schema はリソースごとの更新可能フィールドの許可リスト。
type Schema struct {
	Table     string
	Fields    map[string]Field
	Protected map[string]bool // 常に無視するキー（主キー、所有者キーなど）
	Returning string          // RETURNING句のカラムリスト。空の場合は付与しない
}

// Subset は指定キーのみを許可する派生Schemaを返す。
// 存在しないキーは無視する。Protectedは元のSchemaと共有する。
func (s Schema) Subset(keys ...string) Schema {
	fields := make(map[string]Field, len(keys))
	for _, k := range keys {
		if f, ok := s.Fields[k]; ok {
			fields[k] = f
		}
	}
	return Schema{
		Table:     s.Table,
		Fields:    fields,
		Protected: s.Protected,
		Returning: s.Returning,
	}
}

// Predicate はWHERE句の等値条件。
type Predicate struct {
	Column string
	Value  any
}

// Eq はPredicateを生成する。
func Eq(column string, value any) Predicate {
	return Predicate{Column: column, Value: value}
}

// Statement は組み立て済みのSQLと位置パラメータ。
type Statement struct {
	SQL  string
	Args []any
}

// Build はペイロードからUPDATE文を組み立てる。
//
// SET句はペイロードのキー出現順に並び、末尾に updated_at = now() を付与する。
// Protectedに含まれるキーは黙って無視する。許可リスト外のキーがあれば
// UnknownFieldsErrorを返し、SQLは組み立てない。
func (s Schema) Build(p *Payload, where ...Predicate) (*Statement, error) {
	if len(where) == 0 {
		return nil, errNoPredicate
	}

	var unknown []string
	for _, key := range p.keys {
		if s.Protected[key] {
			continue
		}
		if _, ok := s.Fields[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownFieldsError{Keys: unknown}
	}

	sets := make([]string, 0, len(p.keys)+1)
	args := make([]any, 0, len(p.keys)+len(where))
	for _, key := range p.keys {
		if s.Protected[key] {
			continue
		}
		f := s.Fields[key]
		raw := p.values[key]

		var value any
		if isNull(raw) {
			if f.NotNull {
				return nil, &FieldError{Key: key, Reason: "must not be null"}
			}
		} else {
			v, err := f.Decode(raw)
			if err != nil {
				return nil, &FieldError{Key: key, Reason: err.Error()}
			}
			value = v
		}

		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", f.Column, len(args)))
	}
	if len(sets) == 0 {
		return nil, ErrNoFields
	}
	sets = append(sets, "updated_at = now()")

	conds := make([]string, 0, len(where))
	for _, w := range where {
		args = append(args, w.Value)
		conds = append(conds, fmt.Sprintf("%s = $%d", w.Column, len(args)))
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		s.Table, strings.Join(sets, ", "), strings.Join(conds, " AND "))
	if s.Returning != "" {
		query += " RETURNING " + s.Returning
	}

	return &Statement{SQL: query, Args: args}, nil
}

// ToAPIError はpatchパッケージのエラーをAPIエラーに変換する。
// 該当しないエラーはそのまま返す。
func ToAPIError(err error) error {
	var unknown *UnknownFieldsError
	var field *FieldError
	var dup *DuplicateKeyError
	var syntax *SyntaxError
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoFields):
		return model.NewNoUpdatableFieldsError()
	case errors.As(err, &unknown):
		return model.NewUnknownFieldsError(unknown.Keys)
	case errors.As(err, &field):
		return model.NewValidationError(field.Error())
	case errors.As(err, &dup):
		return model.NewInvalidRequestError(dup.Error())
	case errors.Is(err, ErrNotObject):
		return model.NewInvalidRequestError(err.Error())
	case errors.As(err, &syntax):
		return model.NewInvalidRequestError(syntax.Error())
	}
	return err
}
