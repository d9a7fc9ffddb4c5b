package config

import "github.com/spf13/pflag"

// flagKeys maps command-line flag names to configuration keys. Flags not
// listed here (verbosity, --config) are not part of Config.
var flagKeys = map[string]string{
	"ports":       "ports",
	"timeout":     "timeout",
	"concurrency": "concurrency",
	"seed":        "seed",
	"ipv6":        "ipv6",
	"progress":    "progress",
	"format":      "output.format",
	"output":      "output.file",
	"log-format":  "log.format",
	"geoip-db":    "geoip.database",
}

// BindFlags defines the flags that override configuration values. Only flags
// the user actually sets take precedence over file and environment values.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.StringP("ports", "p", def.Ports, "ports to scan (e.g. 22,80,8000-8100)")
	flags.DurationP("timeout", "t", def.Timeout, "per-probe timeout")
	flags.IntP("concurrency", "c", def.Concurrency, "maximum probes in flight")
	flags.Uint64("seed", def.Seed, "seed for the port order (0 = random)")
	flags.BoolP("ipv6", "6", def.IPv6, "prefer IPv6 when resolving the target")
	flags.String("progress", def.Progress, "live progress line: auto, on, off")
	flags.StringP("format", "f", def.Output.Format, "report format: text, json, yaml")
	flags.StringP("output", "o", def.Output.File, "also write the report to this file")
	flags.String("log-format", def.Log.Format, "log format: text, json")
	flags.String("geoip-db", def.GeoIP.Database, "GeoLite2 country database used to annotate the target")
}
