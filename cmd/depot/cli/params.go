// Copyright 2026 The Depot Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// FlagBinder is implemented by types that bind their own flags
// manually. When a struct field's type implements FlagBinder,
// [BindFlags] calls AddFlags instead of reflecting struct tags.
// [DepotConfig] and [JSONOutput] bind this way, which is how every
// command picks up --config and --json by embedding them.
type FlagBinder interface {
	AddFlags(flagSet *pflag.FlagSet)
}

// FlagsFromParams builds a [pflag.FlagSet] bound to the tagged fields
// of params. params must be a pointer to a struct; anything else is a
// programming error and panics.
//
//	var params scanParams
//	command := &cli.Command{
//	    Flags: func() *pflag.FlagSet {
//	        return cli.FlagsFromParams("scan", &params)
//	    },
//	    Run: func(args []string) error {
//	        // by now parsing has filled in params
//	    },
//	}
func FlagsFromParams(name string, params any) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	if err := BindFlags(params, flagSet); err != nil {
		panic(fmt.Sprintf("cli.FlagsFromParams(%q): %v", name, err))
	}
	return flagSet
}

// BindFlags registers a pflag entry for each tagged field in params,
// which must be a pointer to a struct.
//
// Three tags control the binding:
//
//   - flag:"name" or flag:"name,n" — the long flag name plus an
//     optional single-character shorthand. Fields without a flag tag
//     are skipped.
//   - desc:"help text" — the flag's help description.
//   - default:"value" — the default, parsed according to the field's
//     Go type; omitted means the zero value.
//
// Supported field types: string, bool, int, int64, uint32, float64,
// [time.Duration], []string.
//
// Struct fields whose type implements [FlagBinder] bind through their
// own AddFlags. Embedded structs without FlagBinder are walked
// recursively, so a params struct can compose shared field groups.
func BindFlags(params any, flagSet *pflag.FlagSet) error {
	value := reflect.ValueOf(params)
	if value.Kind() != reflect.Ptr || value.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("params must be a pointer to a struct, got %T", params)
	}
	return bindStructFields(value.Elem(), flagSet)
}

func bindStructFields(structValue reflect.Value, flagSet *pflag.FlagSet) error {
	structType := structValue.Type()

	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		fieldValue := structValue.Field(i)

		// FlagBinder fields (embedded or named) bind themselves. The
		// field must be exported for reflect to surface the pointer.
		if field.Type.Kind() == reflect.Struct && field.IsExported() && fieldValue.CanAddr() {
			if binder, ok := fieldValue.Addr().Interface().(FlagBinder); ok {
				binder.AddFlags(flagSet)
				continue
			}
		}

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			if err := bindStructFields(fieldValue, flagSet); err != nil {
				return fmt.Errorf("embedded %s: %w", field.Name, err)
			}
			continue
		}

		flagTag := field.Tag.Get("flag")
		if flagTag == "" {
			continue
		}
		name, shorthand, _ := strings.Cut(flagTag, ",")

		if !fieldValue.CanAddr() {
			return fmt.Errorf("field %s: not addressable", field.Name)
		}
		err := bindField(fieldValue, flagSet, name, shorthand,
			field.Tag.Get("desc"), field.Tag.Get("default"))
		if err != nil {
			return fmt.Errorf("field %s: %w", field.Name, err)
		}
	}

	return nil
}

// bindField registers one pflag entry. The default tag is parsed
// according to the field's Go type, so a malformed default fails at
// bind time instead of silently becoming zero.
func bindField(fieldValue reflect.Value, flagSet *pflag.FlagSet, name, shorthand, description, defaultString string) error {
	badDefault := func(err error) error {
		return fmt.Errorf("default for --%s: %w", name, err)
	}

	switch target := fieldValue.Addr().Interface().(type) {
	case *string:
		flagSet.StringVarP(target, name, shorthand, defaultString, description)

	case *bool:
		value := false
		if defaultString != "" {
			parsed, err := strconv.ParseBool(defaultString)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.BoolVarP(target, name, shorthand, value, description)

	case *int:
		value := 0
		if defaultString != "" {
			parsed, err := strconv.Atoi(defaultString)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.IntVarP(target, name, shorthand, value, description)

	case *int64:
		var value int64
		if defaultString != "" {
			parsed, err := strconv.ParseInt(defaultString, 10, 64)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.Int64VarP(target, name, shorthand, value, description)

	case *uint32:
		var value uint64
		if defaultString != "" {
			parsed, err := strconv.ParseUint(defaultString, 10, 32)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.Uint32VarP(target, name, shorthand, uint32(value), description)

	case *float64:
		var value float64
		if defaultString != "" {
			parsed, err := strconv.ParseFloat(defaultString, 64)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.Float64VarP(target, name, shorthand, value, description)

	case *time.Duration:
		var value time.Duration
		if defaultString != "" {
			parsed, err := time.ParseDuration(defaultString)
			if err != nil {
				return badDefault(err)
			}
			value = parsed
		}
		flagSet.DurationVarP(target, name, shorthand, value, description)

	case *[]string:
		var value []string
		if defaultString != "" {
			value = strings.Split(defaultString, ",")
		}
		flagSet.StringSliceVarP(target, name, shorthand, value, description)

	default:
		return fmt.Errorf("unsupported type %s for flag --%s", fieldValue.Type(), name)
	}

	return nil
}
