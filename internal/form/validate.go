package form

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okanji/platform-services-registry-web/internal/models"
	"github.com/okanji/platform-services-registry-web/internal/quota"
	appErr "github.com/okanji/platform-services-registry-web/pkg/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("ministry", func(fl validator.FieldLevel) bool {
		return models.IsMinistry(fl.Field().String())
	})
	_ = v.RegisterValidation("cluster", func(fl validator.FieldLevel) bool {
		return models.IsCluster(fl.Field().String())
	})
	return v
}

// FieldError is one failed check, addressed by its dotted path in the form.
type FieldError struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result collects every failed check of a form.
type Result struct {
	Errors []FieldError `json:"errors,omitempty"`
}

// Valid reports whether no check failed.
func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Err returns a validation error for the first failed field, carrying all of
// them under the "fields" meta key, or nil when the form is valid.
func (r Result) Err() error {
	if r.Valid() {
		return nil
	}
	first := r.Errors[0]
	return appErr.Validation(first.Path, first.Reason).WithMeta(appErr.MetaFields, r.Errors)
}

func (r *Result) add(path, reason string) {
	r.Errors = append(r.Errors, FieldError{Path: path, Reason: reason})
}

// Validate runs the required-field checks and checks every tier selection
// against the catalog. The secondary technical lead is validated as a unit
// only when its e-mail is set.
func Validate(v Values, catalog *quota.Catalog) Result {
	var res Result

	collect(&res, "", validate.Struct(v))
	if !v.SecondaryTechnicalLead.Empty() {
		collect(&res, "secondaryTechnicalLead.", validate.Struct(v.SecondaryTechnicalLead))
	}

	for _, ns := range models.Namespaces {
		q := v.Quota(ns)
		for _, kind := range quota.Kinds {
			path := fmt.Sprintf("%sQuota.%s", ns, kind)
			switch key := q.get(kind); {
			case key == "":
				res.add(path, "required")
			case !catalog.IsValidTier(kind, key):
				res.add(path, fmt.Sprintf("unknown %s tier %q", kind, key))
			}
		}
	}
	return res
}

func collect(res *Result, prefix string, err error) {
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.add(strings.TrimSuffix(prefix, "."), err.Error())
		return
	}
	for _, fe := range verrs {
		// Namespace is "<Struct>.<path>"; drop the root struct name.
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		res.add(prefix+path, reason(fe))
	}
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "ministry":
		return fmt.Sprintf("unknown ministry %q", fe.Value())
	case "cluster":
		return fmt.Sprintf("unknown cluster %q", fe.Value())
	}
	return fmt.Sprintf("failed %s check", fe.Tag())
}
