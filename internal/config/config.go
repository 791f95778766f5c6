package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

var configLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	configLogger = l
}

// Config represents the complete configuration structure
type Config struct {
	Version       string              `yaml:"version" default:"1"`
	Site          SiteConfig          `yaml:"site"`
	Server        ServerConfig        `yaml:"server"`
	Content       ContentConfig       `yaml:"content"`
	Editor        EditorConfig        `yaml:"editor"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
}

type LoggingConfig struct {
	Level string `yaml:"level" default:"info"`
}

type SiteConfig struct {
	Name        string `yaml:"name" default:"Stakeados"`
	Description string `yaml:"description" default:"A community content and learning platform"`
}

type ServerConfig struct {
	Host string `yaml:"host" default:"0.0.0.0"`
	Port string `yaml:"port" default:"12700"`
}

type ContentConfig struct {
	// Locales is the closed set of languages every article carries.
	Locales       []string `yaml:"locales" default:"en,es"`
	DefaultLocale string   `yaml:"default_locale" default:"en"`
}

type EditorConfig struct {
	Autosave           bool `yaml:"autosave" default:"true"`
	AutosaveIntervalMS int  `yaml:"autosave_interval_ms" default:"30000"`
	LivePreview        bool `yaml:"live_preview" default:"true"`
}

type NotificationsConfig struct {
	DefaultDigest     string `yaml:"default_digest" default:"weekly"`
	DefaultTimezone   string `yaml:"default_timezone" default:"UTC"`
	DefaultQuietStart string `yaml:"default_quiet_start" default:"22:00"`
	DefaultQuietEnd   string `yaml:"default_quiet_end" default:"08:00"`
}

var AppConfig *Config

func LoadConfig(path string) error {
	config := &Config{}

	// Apply default values first
	applyDefaults(config)

	// Try to read and parse the config file
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, just use defaults
		configLogger.Info().Str("path", path).Msg("Config file not found, using defaults")
		AppConfig = config
		return nil
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(config); err != nil {
		return err
	}

	AppConfig = config
	return nil
}

func validate(config *Config) error {
	if config.Version != DefaultVersion {
		return fmt.Errorf("unsupported configuration version %q", config.Version)
	}
	if len(config.Content.Locales) == 0 {
		return fmt.Errorf("content.locales must not be empty")
	}
	found := false
	for _, l := range config.Content.Locales {
		if l == config.Content.DefaultLocale {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("content.default_locale %q is not in content.locales", config.Content.DefaultLocale)
	}
	if config.Editor.AutosaveIntervalMS <= 0 {
		return fmt.Errorf("editor.autosave_interval_ms must be positive")
	}
	return nil
}

func ApplyDefaults(config interface{}) {
	applyDefaults(config)
}

func applyDefaults(config interface{}) {
	v := reflect.ValueOf(config)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return
	}

	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.IsValid() || !field.CanSet() {
			continue
		}

		// Recursively apply defaults to nested structs
		if field.Kind() == reflect.Struct {
			applyDefaults(field.Addr().Interface())
			continue
		}

		defaultValue := fieldType.Tag.Get("default")
		if defaultValue == "" {
			continue
		}

		switch field.Kind() {
		case reflect.String:
			field.SetString(defaultValue)
		case reflect.Bool:
			if val, err := strconv.ParseBool(defaultValue); err == nil {
				field.SetBool(val)
			}
		case reflect.Int:
			if val, err := strconv.ParseInt(defaultValue, 10, 64); err == nil {
				field.SetInt(val)
			}
		case reflect.Float64:
			if val, err := strconv.ParseFloat(defaultValue, 64); err == nil {
				field.SetFloat(val)
			}
		case reflect.Slice:
			if field.Len() == 0 && field.Type().Elem().Kind() == reflect.String {
				parts := strings.Split(defaultValue, ",")
				slice := reflect.MakeSlice(field.Type(), len(parts), len(parts))
				for j, part := range parts {
					slice.Index(j).SetString(strings.TrimSpace(part))
				}
				field.Set(slice)
			}
		default:
			configLogger.Warn().
				Str("field_name", fieldType.Name).
				Str("field_type", field.Kind().String()).
				Msg("Unsupported field type for default value")
		}
	}
}
