package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable holding the YAML file path
const EnvConfigFile = "CONFIG_FILE"

// loadEnvFiles loads .env.local then .env, godotenv never overrides variables already set
// so the process environment wins over .env.local which wins over .env
func loadEnvFiles() error {
	for _, name := range []string{".env.local", ".env"} {
		if err := godotenv.Load(name); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the YAML file at path (or CONFIG_FILE),
// .env files and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if err := loadEnvFiles(); err != nil {
		return cfg, fmt.Errorf("load environment files: %w", err)
	}
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Search.Provider = strings.ToLower(strings.TrimSpace(c.Search.Provider))
	c.Search.LinkupDepth = strings.ToLower(strings.TrimSpace(c.Search.LinkupDepth))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	chain := make([]string, 0, len(c.Models.Chain))
	for _, v := range c.Models.Chain {
		if v = strings.TrimSpace(v); v != "" {
			chain = append(chain, v)
		}
	}
	c.Models.Chain = chain
}

// applyEnvOverrides sets every field tagged `env:"NAME"` from a non-empty NAME variable
func applyEnvOverrides(cfg any) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return applyEnvToStruct(v)
}

func applyEnvToStruct(v reflect.Value) error {
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	for i := range v.NumField() {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}
		if field.Kind() == reflect.Struct {
			if err := applyEnvToStruct(field); err != nil {
				return err
			}
			continue
		}
		name := t.Field(i).Tag.Get("env")
		if name == "" {
			continue
		}
		val, ok := os.LookupEnv(name)
		if !ok || strings.TrimSpace(val) == "" {
			continue
		}
		if err := setFieldFromString(field, strings.TrimSpace(val)); err != nil {
			return &ValidationError{Field: name, Message: err.Error()}
		}
	}
	return nil
}

func setFieldFromString(field reflect.Value, val string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(val)
	case reflect.Int, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			d, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("invalid duration %q", val)
			}
			field.SetInt(int64(d))
			return nil
		}
		i, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", val)
		}
		field.SetInt(i)
	case reflect.Bool:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", val)
		}
		field.SetBool(b)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			parts := strings.Split(val, ",")
			for i, p := range parts {
				parts[i] = strings.TrimSpace(p)
			}
			field.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}
