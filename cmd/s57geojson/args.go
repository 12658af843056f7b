package main

import (
	"os"
	"strconv"
	"strings"
)

// expandListFlags rewrites the space separated forms of the list flags into
// the comma form the flag parser understands:
//
//	-b -117.3 32.6 -117.1 32.8   ->  --bbox=-117.3,32.6,-117.1,32.8
//	-f DEPARE LIGHTS             ->  --feature-types=DEPARE,LIGHTS
//
// -b takes up to four following numbers, which may be negative. -f takes
// the following words that cannot be a file path: no leading dash, no dot
// and no path separator. Everything after "--" is left alone.
func expandListFlags(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}

		switch arg {
		case "-b", "--bbox":
			values := takeWhile(args[i+1:], 4, isNumber)
			if len(values) > 1 {
				out = append(out, "--bbox="+strings.Join(values, ","))
				i += len(values)
				continue
			}
		case "-f", "--feature-types":
			names := takeWhile(args[i+1:], -1, isLayerName)
			if len(names) > 1 {
				out = append(out, "--feature-types="+strings.Join(names, ","))
				i += len(names)
				continue
			}
		}
		out = append(out, arg)
	}
	return out
}

// takeWhile returns the leading args accepted by ok, at most limit of them
// (no limit when negative).
func takeWhile(args []string, limit int, ok func(string) bool) []string {
	n := 0
	for n < len(args) && (limit < 0 || n < limit) && ok(args[n]) {
		n++
	}
	return args[:n]
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isLayerName(s string) bool {
	return s != "" &&
		!strings.HasPrefix(s, "-") &&
		!strings.ContainsAny(s, "./"+string(os.PathSeparator))
}
