// Command tycho wires the batched account extractor, the contract-state
// HTTP client, and the realtime subscription client into a single
// configurable process, in the
// same spirit as cmd/relay wires the sequencer feed relay.
package main

import (
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/pkg/errors"
	flag "github.com/spf13/pflag"
)

// Config holds every knob this binary's subsystems need. It mirrors
// cmd/relay's "one flat struct, populated by koanf" approach rather than
// one struct per subcommand.
type Config struct {
	RPCEndpoint      string `koanf:"rpc-endpoint"`
	WSEndpoint       string `koanf:"ws-endpoint"`
	HTTPBaseURL      string `koanf:"http-base-url"`
	HTTPVersion      string `koanf:"http-version"`
	Chain            string `koanf:"chain"`
	ProtocolSystem   string `koanf:"protocol-system"`
	DefaultExtractor string `koanf:"default-extractor"`
	ConfigFile       string `koanf:"config"`
}

// DefaultConfig matches the zero-config defaults a local dev node expects.
func DefaultConfig() Config {
	return Config{
		RPCEndpoint:      "http://localhost:8545",
		WSEndpoint:       "ws://localhost:4242/v1/ws",
		HTTPBaseURL:      "http://localhost:4242",
		HTTPVersion:      "v1",
		Chain:            "ethereum",
		ProtocolSystem:   "uniswap_v2",
		DefaultExtractor: "vm:ethereum",
	}
}

func parseConfigFlags(args []string) (*flag.FlagSet, error) {
	f := flag.NewFlagSet("tycho", flag.ContinueOnError)
	def := DefaultConfig()
	f.String("rpc-endpoint", def.RPCEndpoint, "JSON-RPC endpoint of the node to extract accounts from")
	f.String("ws-endpoint", def.WSEndpoint, "realtime subscription websocket endpoint")
	f.String("http-base-url", def.HTTPBaseURL, "base URL of the contract-state HTTP endpoint")
	f.String("http-version", def.HTTPVersion, "API version segment of the contract-state endpoint")
	f.String("chain", def.Chain, "chain name this process indexes")
	f.String("protocol-system", def.ProtocolSystem, "protocol system name attached to decoded components")
	f.String("default-extractor", def.DefaultExtractor, "extractor identity to subscribe to on connect")
	f.String("config", "", "path to a YAML config file overlaying these defaults")
	if err := f.Parse(args); err != nil {
		return nil, err
	}
	return f, nil
}

// ParseTychoConfig resolves configuration from defaults, an optional YAML
// file, and command-line flags, in that precedence order (later sources
// win), the same layering cmd/relay's ParseRelay applies via koanf.
func ParseTychoConfig(args []string) (*Config, error) {
	f, err := parseConfigFlags(args)
	if err != nil {
		return nil, err
	}

	k := koanf.New(".")
	def := DefaultConfig()
	if err := k.Load(structProvider(def), nil); err != nil {
		return nil, err
	}

	if path, _ := f.GetString("config"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// structProvider adapts a Config value into a koanf.Provider so defaults
// load through the same layering path as the file and flag providers.
func structProvider(cfg Config) koanf.Provider {
	return mapProvider{
		"rpc-endpoint":      cfg.RPCEndpoint,
		"ws-endpoint":       cfg.WSEndpoint,
		"http-base-url":     cfg.HTTPBaseURL,
		"http-version":      cfg.HTTPVersion,
		"chain":             cfg.Chain,
		"protocol-system":   cfg.ProtocolSystem,
		"default-extractor": cfg.DefaultExtractor,
	}
}

// mapProvider is the smallest possible koanf.Provider: a flat key/value map.
type mapProvider map[string]interface{}

func (m mapProvider) Read() (map[string]interface{}, error) {
	return m, nil
}

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errMapProviderNoBytes
}

var errMapProviderNoBytes = errors.New("mapProvider does not support ReadBytes")
