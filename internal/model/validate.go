// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON (wire) names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
		return IsWebURL(fl.Field().String())
	})
	_ = v.RegisterValidation("isodatetime", func(fl validator.FieldLevel) bool {
		_, ok := ParseTargetDate(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("chapter", func(fl validator.FieldLevel) bool {
		return IsChapter(fl.Field().String())
	})

	return v
}

// IsWebURL reports whether s is an absolute http(s) URL or a root-relative path.
func IsWebURL(s string) bool {
	if s == "" {
		return false
	}
	if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateRecord runs struct validation and converts failures into a
// validation *Error whose message is the first failing field.
func validateRecord(op string, rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindValidation, Op: op, Message: "Invalid input.", Err: err}
	}

	out := &Error{Kind: KindValidation, Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fieldPath(fe)
		msg := fieldMessage(fe)
		if _, exists := out.Fields[field]; !exists {
			out.Fields[field] = msg
		}
		if out.Message == "" {
			out.Message = msg
		}
	}
	return out
}

// fieldPath strips the struct name and any slice index from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.Index(ns, "["); i >= 0 {
		ns = ns[:i]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	label := humanize(fieldPath(fe))
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "oneof":
		return label + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "weburl":
		return label + " must be a valid URL."
	case "isodatetime":
		return label + " must be a date and time like 2026-01-30T00:00:00."
	case "datetime":
		return label + " must be a date like 2026-01-30."
	case "chapter":
		return label + " contains an unknown chapter."
	case "min":
		if fe.Kind() == reflect.Slice {
			return label + " needs at least " + fe.Param() + " entry."
		}
		return label + " must be at least " + fe.Param() + "."
	case "max":
		return label + " must be at most " + fe.Param() + "."
	default:
		return label + " is invalid."
	}
}

// humanize turns a camelCase wire name into a sentence-case label.
func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
