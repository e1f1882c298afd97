// Package config fills configuration structs from environment variables.
//
// Fields are bound with `env:"NAME"` and an optional `default:"value"` tag.
// Nested structs extend the variable name with their `envPrefix` tag. The
// namespace given to Parse is tried from the most to the least specific
// part, so with namespace BLOG_BLOGSVC the field `env:"LEVEL"` inside a
// struct tagged `envPrefix:"LOG_"` is looked up as BLOG_BLOGSVC_LOG_LEVEL,
// BLOG_LOG_LEVEL and finally LOG_LEVEL.
package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
	// that embeds EnvConfig.
	ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

	// ErrVarNotSet is returned when a required environment variable is not set and has no default.
	ErrVarNotSet = errors.New("env var not set")

	// ErrUnsupportedVarType is returned when trying to parse an environment variable
	// into an unsupported Go type.
	ErrUnsupportedVarType = errors.New("unsupported env var type")
)

//nolint:gochecknoglobals
var durationType = reflect.TypeOf(time.Duration(0))

// EnvConfig marks a struct as a parse root.
type EnvConfig struct {
	namespace string
}

// Namespace returns the namespace the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()

	for i := range v.NumField() {
		field := v.Type().Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			return v.Field(i).Addr().Interface().(*EnvConfig), nil
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads cfg from the environment. cfg must be a pointer to a struct
// embedding EnvConfig. Supported field kinds are string, the integer kinds,
// bool and time.Duration (Go duration syntax, e.g. "90s").
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	return parse(strings.Split(namespace, "_"), "", reflect.ValueOf(cfg).Elem())
}

func parse(nsParts []string, prefix string, v reflect.Value) error {
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Type.Kind() == reflect.Struct {
			if err := parse(nsParts, prefix+field.Tag.Get("envPrefix"), v.Field(i)); err != nil {
				return err
			}

			continue
		}

		if err := parseField(nsParts, prefix, field, v.Field(i)); err != nil {
			return fmt.Errorf("parse field: %w", err)
		}
	}

	return nil
}

func lookupEnv(nsParts []string, name string) (string, bool) {
	for i := len(nsParts); i > 0; i-- {
		ns := strings.Join(nsParts[:i], "_")
		if ns != "" {
			ns += "_"
		}

		if value, ok := os.LookupEnv(ns + name); ok {
			return value, true
		}
	}

	return "", false
}

//nolint:cyclop
func parseField(nsParts []string, prefix string, field reflect.StructField, value reflect.Value) error {
	envTag := field.Tag.Get("env")
	if envTag == "" {
		return nil
	}

	raw, ok := lookupEnv(nsParts, prefix+envTag)
	if !ok {
		defaultValue, hasDefault := field.Tag.Lookup("default")
		if !hasDefault {
			return fmt.Errorf("%w: %s", ErrVarNotSet, prefix+envTag)
		}

		raw = defaultValue
	}

	if field.Type == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %w", envTag, err)
		}

		value.SetInt(int64(d))

		return nil
	}

	//nolint:exhaustive
	switch field.Type.Kind() {
	case reflect.String:
		value.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, field.Type.Bits())
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid type for %s: %w", envTag, err)
		}

		value.SetBool(b)
	default:
		return fmt.Errorf("%w: %s (%v)", ErrUnsupportedVarType, envTag, field.Type.Kind())
	}

	return nil
}
