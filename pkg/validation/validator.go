package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once

	giftCardCodePattern = regexp.MustCompile(`^GC-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)
	currencyPattern     = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

// Validator returns the shared validator with custom rules registered
func Validator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()

		// report json field names rather than Go field names
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("gift_card_code", func(fl validator.FieldLevel) bool {
			return giftCardCodePattern.MatchString(strings.ToUpper(fl.Field().String()))
		})
		_ = validate.RegisterValidation("gift_card_type", oneOf("digital", "physical"))
		_ = validate.RegisterValidation("proof_status", oneOf("pending", "approved", "revision_requested"))
		_ = validate.RegisterValidation("currency_code", func(fl validator.FieldLevel) bool {
			return currencyPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

func oneOf(values ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		for _, allowed := range values {
			if v == allowed {
				return true
			}
		}
		return false
	}
}

// ValidateStruct validates s and converts field failures into a ValidationError
func ValidateStruct(s interface{}) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return NewValidationError(verrs)
	}
	return err
}

// IsGiftCardCode reports whether code has the GC-XXXX-XXXX-XXXX shape
func IsGiftCardCode(code string) bool {
	return giftCardCodePattern.MatchString(code)
}
