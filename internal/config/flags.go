package config

import (
	"flag"
	"io"
	"strings"
)

// filterArgs keeps only the allowed flags (and their values) from args, so
// each flag set can parse its own subset without tripping over the others.
//
// Supported formats:
//
//	-c conf.json
//	--config=conf.json
//
// Boolean flags never take the following argument as their value.
func filterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if isAllowed(allowed, name) {
				filtered = append(filtered, arg)
			}
			continue
		}

		if isAllowed(allowed, arg) {
			filtered = append(filtered, arg)
			if isAllowed(boolFlags, arg) {
				continue
			}
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

var boolFlags = map[string]struct{}{
	"-debug":  {},
	"--debug": {},
}

func isAllowed(allowed map[string]struct{}, arg string) bool {
	_, ok := allowed[arg]
	return ok
}

// jsonConfigPath extracts the value of -c/-config from args.
func jsonConfigPath(args []string) string {
	var path string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(filterArgs(args, []string{"-c", "-config", "--config"}))

	return path
}

// parseFlags applies command-line overrides.
//
//	-a string     HTTP bind address
//	-env string   "production" or "development"
//	-store string store driver (sqlite3, pgx, mongo)
//	-d string     SQL DSN
//	-m string     MongoDB URI
//	-s string     session signing secret
//	-t duration   session token lifetime
//	-r string     Redis address for logout revocation
//	-o string     allowed CORS origin
//	-debug        debug logging
func parseFlags(config *Config, args []string) error {
	args = filterArgs(args, []string{
		"-a", "-env", "-store", "-d", "-m", "-s", "-t", "-r", "-o", "-debug",
		"--a", "--env", "--store", "--d", "--m", "--s", "--t", "--r", "--o", "--debug",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Addr, "a", config.Addr, "address and port to run server")
	fs.StringVar(&config.Env, "env", config.Env, "environment mode")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "store driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.MongoURI, "m", config.MongoURI, "MongoDB URI")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "session signing secret")
	fs.DurationVar(&config.TokenTTL, "t", config.TokenTTL, "session token lifetime")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.StringVar(&config.AllowedOrigin, "o", config.AllowedOrigin, "allowed CORS origin")
	fs.BoolVar(&config.Debug, "debug", config.Debug, "debug logging")

	return fs.Parse(args)
}
