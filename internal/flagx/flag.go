// Package flagx lets several components parse their own flags out of one
// command line.
package flagx

import (
	"flag"
	"io"
	"os"
	"strings"
)

// flagName strips the dashes and any "=value" from arg. It returns "" when
// arg is not a flag.
func flagName(arg string) string {
	if len(arg) < 2 || arg[0] != '-' {
		return ""
	}
	name := strings.TrimLeft(arg, "-")
	name, _, _ = strings.Cut(name, "=")
	return name
}

// FilterArgs keeps only the allowed flags of args, in order, together with
// their values. A flag may be given as "-x v", "-x=v", "--x v" or "--x=v";
// allowed names match either dash form. A separate value is taken only when
// it does not itself look like a flag.
func FilterArgs(args []string, allowed []string) []string {
	names := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		names[strings.TrimLeft(a, "-")] = struct{}{}
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		name := flagName(args[i])
		if _, ok := names[name]; !ok || name == "" {
			continue
		}
		out = append(out, args[i])
		if strings.Contains(args[i], "=") {
			continue
		}
		if i+1 < len(args) && flagName(args[i+1]) == "" {
			out = append(out, args[i+1])
			i++
		}
	}
	return out
}

// ConfigFileFlag returns the value of -c / -config from os.Args, or "" when
// neither is set. The last occurrence wins.
func ConfigFileFlag() string {
	return configFileFlag(os.Args[1:])
}

func configFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "config file (.json, .yaml, .yml, .toml)")
	fs.StringVar(&path, "c", "", "config file (shorthand)")
	_ = fs.Parse(FilterArgs(args, []string{"c", "config"}))

	return path
}
