package helpers

import (
	"github.com/gookit/validate"

	"github.com/fundwise/ledgex/types"
)

type Errors struct {
	Errors []string `json:"errors"`
}

func (e Errors) Size() int {
	return len(e.Errors)
}

// ValidateOrderBy whitelists the sort direction. Empty is allowed so the
// caller's default applies; anything else never reaches an ORDER BY clause.
func ValidateOrderBy(val types.OrderBy) bool {
	switch val {
	case "", types.OrderByAsc, types.OrderByDesc:
		return true
	}

	return false
}

func Validate(payload interface{}, err_src *Errors) {
	v := validate.Struct(payload)
	if !v.Validate() {
		for _, errs := range v.Errors.All() {
			for _, err := range errs {
				err_src.Errors = append(err_src.Errors, err)
			}
		}
	}
}
