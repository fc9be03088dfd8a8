package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Missing returns the json names of the fields of v that fail their
// validate tags, in declaration order. A nil result means v passed.
func Missing(v any) []string {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fe.Field())
	}
	return out
}

// Required maps every missing field of v to the message the form shows for
// it. Fields without an entry in messages get fallback.
func Required(v any, messages map[string]string, fallback string) map[string]string {
	missing := Missing(v)
	if len(missing) == 0 {
		return nil
	}
	out := make(map[string]string, len(missing))
	for _, f := range missing {
		if msg, ok := messages[f]; ok {
			out[f] = msg
			continue
		}
		out[f] = fallback
	}
	return out
}
