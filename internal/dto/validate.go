package dto

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	dom "github.com/enriqueruelasgarcia/Users-mongo/internal/domain"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding rules on gin's validator:
//
//	objectid  24-char hex user id
//	exdate    a date accepted by domain.ParseDate
//	minutes   a whole number
//	posint    a whole number greater than zero
//	notblank  not empty after trimming spaces
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not go-playground/validator")
			return
		}
		rules := map[string]validator.Func{
			"objectid": func(fl validator.FieldLevel) bool {
				return primitive.IsValidObjectID(fl.Field().String())
			},
			"exdate": func(fl validator.FieldLevel) bool {
				_, perr := dom.ParseDate(fl.Field().String())
				return perr == nil
			},
			"minutes": func(fl validator.FieldLevel) bool {
				_, perr := parseInt(fl.Field().String())
				return perr == nil
			},
			"notblank": func(fl validator.FieldLevel) bool {
				return strings.TrimSpace(fl.Field().String()) != ""
			},
			"posint": func(fl validator.FieldLevel) bool {
				n, perr := parseInt(fl.Field().String())
				return perr == nil && n > 0
			},
		}
		for tag, fn := range rules {
			if err = v.RegisterValidation(tag, fn); err != nil {
				return
			}
		}
	})
	return err
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

var fieldMessages = map[string]string{
	"required": "is required",
	"objectid": "must be a 24 character hex id",
	"exdate":   "must be a date like 2023-01-05",
	"minutes":  "must be a whole number of minutes",
	"posint":   "must be a positive integer",
	"notblank": "is required",
}

// Describe turns a binding error into a short client-facing message.
func Describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Tag()]
		if !ok {
			msg = "is invalid"
		}
		parts = append(parts, fieldName(fe)+" "+msg)
	}
	return strings.Join(parts, "; ")
}

var fieldNames = map[string]string{
	"ID":          "_id",
	"Username":    "username",
	"Description": "description",
	"Duration":    "duration",
	"Date":        "date",
	"From":        "from",
	"To":          "to",
	"Limit":       "limit",
}

func fieldName(fe validator.FieldError) string {
	if n, ok := fieldNames[fe.Field()]; ok {
		return n
	}
	return strings.ToLower(fe.Field())
}
