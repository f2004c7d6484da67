package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

var serverFlags = []string{
	"-a", "-d", "-l", "-T",
	"-w", "-m", "-x",
	"-t", "-o",
	"-q", "-s",
	"-i", "-k",
	"-r",
	"-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN
//	-l string   log level (debug, info, warn, error)
//	-T int      store operation timeout, seconds
//	-w int      failed-login window, minutes
//	-m int      failures that lock an account (0 disables locking)
//	-x int      successful logins between password rehashes
//	-t int      session lifetime, minutes
//	-o int      session rollover threshold, minutes
//	-q int      requests allowed per client per rate window
//	-s int      rate window, seconds
//	-i string   root account id
//	-k string   root account bootstrap password
//	-r int      audit retention, days
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket for audit archives (empty disables archiving)
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// Duration flags are integers in the unit shown. A duration flag that is
// not passed leaves the current value untouched.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	storeTimeout := fs.Int("T", int(config.StoreTimeout.Seconds()), "store timeout (in seconds)")

	failureWindow := fs.Int("w", int(config.FailureWindow.Minutes()), "failed login window (in minutes)")
	fs.IntVar(&config.MaxFailures, "m", config.MaxFailures, "failures before lockout, 0 disables")
	fs.IntVar(&config.RehashCountThreshold, "x", config.RehashCountThreshold, "logins between rehashes")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session ttl (in minutes)")
	rollover := fs.Int("o", int(config.SessionRolloverThreshold.Minutes()), "session rollover threshold (in minutes)")

	fs.IntVar(&config.RateLimitMaxRequests, "q", config.RateLimitMaxRequests, "max requests per rate window")
	rateWindow := fs.Int("s", int(config.RateLimitWindow.Seconds()), "rate window (in seconds)")

	fs.StringVar(&config.RootAccountID, "i", config.RootAccountID, "root account id")
	fs.StringVar(&config.RootAccountPassword, "k", config.RootAccountPassword, "root account bootstrap password")

	retention := fs.Int("r", int(config.AuditRetention.Hours()/24), "audit retention (in days)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Duration flags only override the file when given explicitly, so
	// sub-unit file values such as "500ms" survive.
	units := map[string]struct {
		dst  *time.Duration
		v    *int
		unit time.Duration
	}{
		"T": {&config.StoreTimeout, storeTimeout, time.Second},
		"w": {&config.FailureWindow, failureWindow, time.Minute},
		"t": {&config.SessionTTL, sessionTTL, time.Minute},
		"o": {&config.SessionRolloverThreshold, rollover, time.Minute},
		"s": {&config.RateLimitWindow, rateWindow, time.Second},
		"r": {&config.AuditRetention, retention, 24 * time.Hour},
	}
	fs.Visit(func(f *flag.Flag) {
		if u, ok := units[f.Name]; ok {
			*u.dst = time.Duration(*u.v) * u.unit
		}
	})
}
