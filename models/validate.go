package models

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// 空白だけのタイトルを弾く
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// Validate は validate タグに従って入力を検証する
func (in GameInput) Validate() error {
	return validate.Struct(in)
}

// ValidateAll は一括置換の入力を先頭から検証し、最初のエラーを返す
func ValidateAll(inputs []GameInput) error {
	for i := range inputs {
		if err := inputs[i].Validate(); err != nil {
			return &IndexedError{Index: i, Err: err}
		}
	}
	return nil
}

// IndexedError は一括入力のどの要素で失敗したかを保持する
type IndexedError struct {
	Index int
	Err   error
}

func (e *IndexedError) Error() string {
	return "games[" + strconv.Itoa(e.Index) + "]: " + e.Err.Error()
}

func (e *IndexedError) Unwrap() error { return e.Err }
