package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Source priorities; higher values override lower ones.
const (
	PriorityDefaults = 0
	PriorityFile     = 10
	PriorityEnv      = 20
	PriorityFlags    = 30
)

// Source is one layer of configuration.
type Source interface {
	Name() string
	Priority() int
	Load(k *koanf.Koanf) error
}

// DefaultSources returns the standard layering. Empty path or nil flags
// drop the corresponding layer.
func DefaultSources(path string, flags *pflag.FlagSet) []Source {
	sources := []Source{defaultsSource{}}
	if path != "" {
		sources = append(sources, fileSource{path: path})
	}
	sources = append(sources, envSource{prefix: EnvPrefix})
	if flags != nil {
		sources = append(sources, flagSource{flags: flags})
	}
	return sources
}

type defaultsSource struct{}

func (defaultsSource) Name() string  { return "defaults" }
func (defaultsSource) Priority() int { return PriorityDefaults }
func (defaultsSource) Load(k *koanf.Koanf) error {
	return k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil)
}

type fileSource struct{ path string }

func (s fileSource) Name() string  { return "file " + s.path }
func (s fileSource) Priority() int { return PriorityFile }
func (s fileSource) Load(k *koanf.Koanf) error {
	return k.Load(file.Provider(s.path), yaml.Parser())
}

type envSource struct{ prefix string }

func (s envSource) Name() string  { return "environment" }
func (s envSource) Priority() int { return PriorityEnv }
func (s envSource) Load(k *koanf.Koanf) error {
	return k.Load(env.Provider(s.prefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, s.prefix)), "_", ".")
	}), nil)
}

type flagSource struct{ flags *pflag.FlagSet }

func (s flagSource) Name() string  { return "flags" }
func (s flagSource) Priority() int { return PriorityFlags }
func (s flagSource) Load(k *koanf.Koanf) error {
	return k.Load(posflag.ProviderWithFlag(s.flags, ".", k, func(f *pflag.Flag) (string, any) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(s.flags, f)
	}), nil)
}
