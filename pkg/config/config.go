// Package config resolves pixelroll settings from command-line flags,
// environment variables and built-in defaults, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"github.com/provide-io/pixelroll/internal/workspace"
	"github.com/provide-io/pixelroll/pkg/keyfile"
	"github.com/provide-io/pixelroll/pkg/keyfile/operations"
	"github.com/provide-io/pixelroll/pkg/logging"
	"github.com/provide-io/pixelroll/pkg/scramble/key"
)

// Environment variables
const (
	EnvAlpha      = "PIXELROLL_ALPHA"
	EnvIterations = "PIXELROLL_ITERATIONS"
	EnvWorkers    = "PIXELROLL_WORKERS"
	EnvKeyCodec   = "PIXELROLL_KEY_CODEC"
	EnvKeyPerms   = "PIXELROLL_KEY_PERMS"
	EnvScheme     = "PIXELROLL_SCHEME"
)

// Value sources, reported in debug logs
const (
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceDefault = "default"
)

// Overrides carries values given on the command line. Zero values mean
// "not given".
type Overrides struct {
	LogLevel   string
	Alpha      *int
	Iterations *int
	Workers    *int
	KeyCodec   string
	KeyPerms   string
	Scheme     string
}

// Settings is the fully resolved configuration
type Settings struct {
	LogLevel   string
	Alpha      int
	Iterations int
	Workers    int
	KeyCodec   string
	KeyPerms   os.FileMode
	Scheme     key.Scheme

	// Sources maps each setting name to where its value came from
	Sources map[string]string
}

// Resolve merges overrides, the environment (via getenv) and defaults.
// A nil getenv reads the process environment.
func Resolve(o Overrides, getenv func(string) string) (*Settings, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	s := &Settings{Sources: make(map[string]string)}

	pickString := func(name, flagValue, envName, def string) string {
		switch {
		case flagValue != "":
			s.Sources[name] = SourceFlag
			return flagValue
		case getenv(envName) != "":
			s.Sources[name] = SourceEnv
			return getenv(envName)
		default:
			s.Sources[name] = SourceDefault
			return def
		}
	}
	pickInt := func(name string, flagValue *int, envName string, def int) (int, error) {
		if flagValue != nil {
			s.Sources[name] = SourceFlag
			return *flagValue, nil
		}
		if raw := getenv(envName); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil {
				return 0, fmt.Errorf("%s=%q: %w", envName, raw, err)
			}
			s.Sources[name] = SourceEnv
			return v, nil
		}
		s.Sources[name] = SourceDefault
		return def, nil
	}

	var err error
	s.LogLevel = pickString("log_level", o.LogLevel, logging.EnvLogLevel, logging.DefaultLevel)
	if s.Alpha, err = pickInt("alpha", o.Alpha, EnvAlpha, key.DefaultAlpha); err != nil {
		return nil, err
	}
	if s.Iterations, err = pickInt("iterations", o.Iterations, EnvIterations, key.DefaultIterations); err != nil {
		return nil, err
	}
	if s.Workers, err = pickInt("workers", o.Workers, EnvWorkers, runtime.GOMAXPROCS(0)); err != nil {
		return nil, err
	}
	s.KeyCodec = pickString("key_codec", o.KeyCodec, EnvKeyCodec, keyfile.CodecRaw)

	perms := pickString("key_perms", o.KeyPerms, EnvKeyPerms, workspace.FormatOctal(workspace.DefaultFilePerms))
	if s.KeyPerms, err = workspace.ParseOctalString(perms); err != nil {
		return nil, err
	}

	scheme := pickString("scheme", o.Scheme, EnvScheme, string(key.SchemeLegacy))
	if s.Scheme, err = key.ParseScheme(scheme); err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges that Resolve cannot enforce while parsing.
func (s *Settings) Validate() error {
	if s.Alpha < 1 || s.Alpha > key.MaxAlpha {
		return fmt.Errorf("alpha must be in 1..%d, got %d", key.MaxAlpha, s.Alpha)
	}
	if s.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", s.Iterations)
	}
	if s.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", s.Workers)
	}
	if _, err := operations.StringToOperations(s.KeyCodec); err != nil {
		return err
	}
	return nil
}
