package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultEnvPrefix is the prefix of environment variables read by Load.
const DefaultEnvPrefix = "RAWR_"

// ErrConfiguration wraps every error returned by Load.
var ErrConfiguration = errors.New("configuration error")

type loadOptions struct {
	file      string
	yaml      []byte
	envPrefix string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithFile reads YAML from path. A missing file is an error.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) { o.file = path }
}

// WithYAML uses doc as the YAML source. It is merged after WithFile.
func WithYAML(doc []byte) LoadOption {
	return func(o *loadOptions) { o.yaml = doc }
}

// WithEnvPrefix replaces DefaultEnvPrefix. An empty prefix disables the
// environment source.
func WithEnvPrefix(prefix string) LoadOption {
	return func(o *loadOptions) { o.envPrefix = prefix }
}

// Load builds a Config from Default, the YAML sources and the environment,
// later sources overriding earlier ones, and validates it.
//
// Environment keys drop the prefix, lower-case, and map "_" to a nesting
// level and "__" to a literal underscore, so RAWR_AUTH_DEFAULT__STRATEGIES
// sets auth.default_strategies. Lists may be given comma separated.
func Load(opts ...LoadOption) (*Config, error) {
	o := loadOptions{envPrefix: DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := Default()
	k := koanf.New(".")

	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: loading defaults: %w", ErrConfiguration, err)
	}

	if o.file != "" {
		doc, err := os.ReadFile(o.file)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
		}
		if err := k.Load(rawbytes.Provider(doc), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %w", ErrConfiguration, o.file, err)
		}
	}

	if len(o.yaml) != 0 {
		if err := k.Load(rawbytes.Provider(o.yaml), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parsing yaml: %w", ErrConfiguration, err)
		}
	}

	if o.envPrefix != "" {
		if err := k.Load(envProvider(o.envPrefix), nil); err != nil {
			return nil, fmt.Errorf("%w: reading environment: %w", ErrConfiguration, err)
		}
	}

	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return &cfg, nil
}

func envProvider(prefix string) *env.Env {
	return env.Provider(".", env.Opt{
		Prefix: prefix,
		TransformFunc: func(key, val string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, prefix))
			key = strings.ReplaceAll(key, "__", "\x00")
			key = strings.ReplaceAll(key, "_", ".")
			return strings.ReplaceAll(key, "\x00", "_"), val
		},
	})
}
