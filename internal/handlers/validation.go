package handlers

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Ledger codes are short identifiers like "1000" or "4100-TUITION".
var ledgerCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{0,31}$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("ledgercode", func(fl validator.FieldLevel) bool {
			return ledgerCodePattern.MatchString(fl.Field().String())
		})
	}
}
