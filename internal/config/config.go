// Package config loads hashwriter settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	apperrors "hashwriter/internal/errors"
	"hashwriter/internal/hash"
	"hashwriter/internal/logging"
)

const (
	// OptionNameAlgorithm selects the hash algorithm.
	OptionNameAlgorithm = "algorithm"
	// OptionNameBufferSize sets the destination write buffer size in bytes.
	OptionNameBufferSize = "buffer-size"
	// OptionNameVerbosity sets the log level.
	OptionNameVerbosity = "verbosity"

	// EnvPrefix prefixes environment overrides, e.g. HASHWRITER_ALGORITHM.
	EnvPrefix = "hashwriter"

	// DefaultBufferSize is the write buffer size used when none is configured.
	DefaultBufferSize = 64 * 1024
	maxBufferSize     = 64 * 1024 * 1024
)

// Config holds validated settings.
type Config struct {
	Algorithm  hash.Algorithm
	BufferSize int
	LogLevel   slog.Level
}

// New returns a viper instance with defaults and environment binding. When
// file is not empty it is read as the config file.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(OptionNameAlgorithm, string(hash.Default))
	v.SetDefault(OptionNameBufferSize, DefaultBufferSize)
	v.SetDefault(OptionNameVerbosity, "info")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", file, err)
			}
		}
	}
	return v, nil
}

// Load validates the settings held by v.
func Load(v *viper.Viper) (Config, error) {
	alg, err := hash.Parse(v.GetString(OptionNameAlgorithm))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", err, apperrors.ErrUnsupportedAlgorithm)
	}
	size := v.GetInt(OptionNameBufferSize)
	if size <= 0 || size > maxBufferSize {
		return Config{}, fmt.Errorf("buffer size %d out of range (1..%d): %w", size, maxBufferSize, apperrors.ErrUsage)
	}
	level, err := logging.ParseLevel(v.GetString(OptionNameVerbosity))
	if err != nil {
		return Config{}, fmt.Errorf("%w: %w", err, apperrors.ErrUsage)
	}
	return Config{Algorithm: alg, BufferSize: size, LogLevel: level}, nil
}
