// Package config loads service configuration in three layers: `default:"..."`
// struct tags, an optional YAML file named by CONFIG_FILE, and environment
// variables, each overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileEnv names the environment variable holding the YAML config path.
const FileEnv = "CONFIG_FILE"

// Validator is implemented by config structs that check themselves after loading.
type Validator interface {
	Validate() error
}

var durationType = reflect.TypeOf(time.Duration(0))

// field is a settable leaf of the config struct with its environment key.
type field struct {
	value  reflect.Value
	meta   reflect.StructField
	envKey string
}

// LoadConfig hydrates target, a pointer to struct. Environment keys come from
// `env:"KEY"` tags or are derived from the field path as PARENT_CHILD; `env:"-"`
// excludes a field from both defaults and environment.
func LoadConfig(target interface{}) error {
	if target == nil {
		return errors.New("config: target is nil")
	}
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.Elem().Kind() != reflect.Struct {
		return errors.New("config: target must be pointer to struct")
	}
	root := val.Elem()

	if err := walk(root, "", applyDefault); err != nil {
		return err
	}
	if path := os.Getenv(FileEnv); path != "" {
		if err := loadFromFile(path, target); err != nil {
			return err
		}
	}
	if err := walk(root, "", applyEnv); err != nil {
		return err
	}

	if v, ok := target.(Validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	return nil
}

func loadFromFile(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read file: %w", err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("config: decode yaml: %w", err)
	}
	return nil
}

func walk(v reflect.Value, prefix string, visit func(field) error) error {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		fv, ft := v.Field(i), t.Field(i)
		if !fv.CanSet() {
			continue
		}
		if ft.Anonymous && fv.Kind() == reflect.Struct {
			if err := walk(fv, prefix, visit); err != nil {
				return err
			}
			continue
		}

		key := ft.Tag.Get("env")
		switch key {
		case "-":
			continue
		case "":
			key = envKey(prefix, ft.Name)
		default:
			key = envKey("", key)
		}

		if fv.Kind() == reflect.Struct {
			if err := walk(fv, key, visit); err != nil {
				return err
			}
			continue
		}
		if err := visit(field{value: fv, meta: ft, envKey: key}); err != nil {
			return err
		}
	}
	return nil
}

func applyDefault(f field) error {
	def, ok := f.meta.Tag.Lookup("default")
	if !ok || !f.value.IsZero() {
		return nil
	}
	if err := assign(f.value, def); err != nil {
		return fmt.Errorf("config: default for %s: %w", f.meta.Name, err)
	}
	return nil
}

func applyEnv(f field) error {
	raw, ok := os.LookupEnv(f.envKey)
	if !ok {
		return nil
	}
	if err := assign(f.value, raw); err != nil {
		return fmt.Errorf("config: parse %s: %w", f.envKey, err)
	}
	return nil
}

func envKey(prefix, name string) string {
	name = strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
	if prefix == "" {
		return name
	}
	return prefix + "_" + name
}

func assign(dst reflect.Value, raw string) error {
	if dst.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		dst.SetString(raw)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, dst.Type().Bits())
		if err != nil {
			return err
		}
		dst.SetFloat(n)
	case reflect.Slice:
		if dst.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type %s", dst.Type())
		}
		parts := strings.Split(raw, ",")
		out := reflect.MakeSlice(dst.Type(), 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = reflect.Append(out, reflect.ValueOf(p).Convert(dst.Type().Elem()))
			}
		}
		dst.Set(out)
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return nil
}
