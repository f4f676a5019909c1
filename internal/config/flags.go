package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kingpin/v2"
)

// Two-letter short options are not expressible as kingpin short flags (which
// take a single rune and would read "-hb" as "-h -b"), so they are rewritten to
// their long form before parsing.
var multiLetterShorts = map[string]string{
	"-hb": "--healthcheck-bind",
	"-hp": "--healthcheck-port",
}

// kingpin registers these on every application. Their actions print usage or
// completion scripts and exit the process, so they are refused up front.
var builtinFlags = map[string]struct{}{
	"help":                   {},
	"help-long":              {},
	"help-man":               {},
	"completion-bash":        {},
	"completion-script-bash": {},
	"completion-script-zsh":  {},
}

// CLIOverrides holds command-line flag overrides. A nil field means the flag
// was not supplied.
type CLIOverrides struct {
	ConfigFile      string
	Bind            *string
	Port            *int
	HealthcheckBind *string
	HealthcheckPort *int
}

// ParseArgs parses the command line. It performs no file I/O.
func ParseArgs(args []string) (*CLIOverrides, error) {
	app := kingpin.New("persistent-data", "Hawkular APM Persistent Data service").
		Terminate(nil).
		UsageWriter(io.Discard).
		ErrorWriter(io.Discard)

	var bindSet, portSet, hbSet, hpSet bool
	bind := app.Flag("bind", "IP address to bind to").Short('b').IsSetByUser(&bindSet).String()
	port := app.Flag("port", "Port to bind to").Short('p').IsSetByUser(&portSet).Int()
	conf := app.Flag("conf", "Configuration file to use").Short('c').String()
	hb := app.Flag("healthcheck-bind", "IP address to bind the health check service to (short: -hb)").IsSetByUser(&hbSet).String()
	hp := app.Flag("healthcheck-port", "Port to bind the health check service to (short: -hp)").IsSetByUser(&hpSet).Int()

	args = normalizeArgs(args)
	if flag, ok := findBuiltinFlag(args); ok {
		return nil, &Error{Kind: ArgParseFailed, Err: fmt.Errorf("unknown long flag '%s'", flag)}
	}
	if _, err := app.Parse(args); err != nil {
		return nil, &Error{Kind: ArgParseFailed, Err: err}
	}

	overrides := &CLIOverrides{ConfigFile: *conf}
	if bindSet {
		overrides.Bind = bind
	}
	if portSet {
		overrides.Port = port
	}
	if hbSet {
		overrides.HealthcheckBind = hb
	}
	if hpSet {
		overrides.HealthcheckPort = hp
	}
	return overrides, nil
}

func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		name, value, hasValue := strings.Cut(arg, "=")
		if long, ok := multiLetterShorts[name]; ok {
			if hasValue {
				arg = long + "=" + value
			} else {
				arg = long
			}
		}
		out = append(out, arg)
	}
	return out
}

// findBuiltinFlag reports the first kingpin built-in flag in args, including
// its negated "--no-" form. Arguments after "--" are not flags.
func findBuiltinFlag(args []string) (string, bool) {
	for _, arg := range args {
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if _, ok := builtinFlags[strings.TrimPrefix(name, "no-")]; ok {
			return arg, true
		}
	}
	return "", false
}
