package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileSystem is the file access the loader needs.
// fstest.MapFS satisfies it, which keeps tests off the disk.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader reads configuration from a file and the environment.
type Loader struct {
	fs  FileSystem
	env *EnvLoader
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithFileSystem sets the file system files are read from.
func WithFileSystem(fsys FileSystem) LoaderOption {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithEnv sets the environment loader. Nil disables environment overrides.
func WithEnv(env *EnvLoader) LoaderOption {
	return func(l *Loader) {
		l.env = env
	}
}

// NewLoader creates a loader reading from the OS file system with SIGSLOT_
// environment overrides.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		fs:  OSFS{},
		env: NewEnvLoader(EnvPrefix),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the file at path (optional; an empty path or a missing file
// means defaults only), applies environment overrides and validates.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// Load is like the package-level Load.
func (l *Loader) Load(path string) (*Config, error) {
	cfg, err := l.Decode(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode layers defaults, file and environment into a Config without
// validating it.
func (l *Loader) Decode(path string) (*Config, error) {
	merged := toMap(Default())

	if path != "" {
		file, err := l.readFile(path)
		if err != nil {
			return nil, err
		}
		merged = DeepMerge(merged, file)
	}

	if l.env != nil {
		env, err := l.env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		merged = DeepMerge(merged, env)
	}

	return fromMap(merged)
}

// readFile parses a TOML or YAML file into a map. A missing file yields nil.
func (l *Loader) readFile(path string) (map[string]any, error) {
	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes data according to the extension of path.
func Parse(path string, data []byte) (map[string]any, error) {
	var out map[string]any

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if err := toml.Unmarshal(data, &out); err != nil {
			perr := &ParseError{Path: path, Message: err.Error(), Err: err}
			var decodeErr *toml.DecodeError
			if errors.As(err, &decodeErr) {
				perr.Line, perr.Column = decodeErr.Position()
			}
			return nil, perr
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
		}
	default:
		return nil, fmt.Errorf("%s: %w %q", path, ErrUnsupportedFormat, ext)
	}

	return out, nil
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
		} else {
			dst[key] = srcVal
		}
	}
	return dst
}

func toMap(c *Config) map[string]any {
	return map[string]any{
		"logging":  map[string]any{"level": c.Logging.Level},
		"throttle": map[string]any{"window": c.Throttle.Window},
		"timer":    map[string]any{"interval": c.Timer.Interval},
		"metrics": map[string]any{
			"namespace": c.Metrics.Namespace,
			"addr":      c.Metrics.Addr,
		},
	}
}

func fromMap(m map[string]any) (*Config, error) {
	var (
		cfg  Config
		errs []error
	)

	str := func(path string, dst *string) {
		v, err := getString(m, path)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}
	dur := func(path string, dst *time.Duration) {
		v, err := getDuration(m, path)
		if err != nil {
			errs = append(errs, err)
			return
		}
		*dst = v
	}

	str("logging.level", &cfg.Logging.Level)
	dur("throttle.window", &cfg.Throttle.Window)
	dur("timer.interval", &cfg.Timer.Interval)
	str("metrics.namespace", &cfg.Metrics.Namespace)
	str("metrics.addr", &cfg.Metrics.Addr)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// getByPath looks up a dot-separated path in nested maps.
func getByPath(m map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = m
	for _, part := range parts {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = node[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func getString(m map[string]any, path string) (string, error) {
	v, ok := getByPath(m, path)
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// getDuration accepts duration strings ("50ms") and integers, which are
// taken as milliseconds.
func getDuration(m map[string]any, path string) (time.Duration, error) {
	v, ok := getByPath(m, path)
	if !ok || v == nil {
		return 0, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case string:
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %q is not a duration", path, ErrTypeMismatch, d)
		}
		return parsed, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case uint64:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("%s: %w: expected duration, got %T", path, ErrTypeMismatch, v)
	}
}
