package config

import (
	"flag"
	"io"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/flagx"
)

var flagNames = []string{
	"a", "g", "d", "m", "s", "t", "z", "legacy-reset", "closed-enqueue",
	"q", "x", "u", "p", "b", "r", "e", "l",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-g string   gRPC bind address, empty disables gRPC
//	-d string   PostgreSQL DSN, empty selects the in-memory store
//	-m int      max pooled database connections
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-z string   clinic timezone (IANA name or "Local")
//	-legacy-reset    keep the done-set reset on disconnect/after broadcast
//	-closed-enqueue  allow enqueueing onto closed shifts
//	-q string   AMQP URL for the presence relay
//	-x string   AMQP fanout exchange name
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket for shift archives, empty disables archiving
//	-r string   S3 region
//	-e string   S3 base endpoint (e.g. "http://127.0.0.1:9000/")
//	-l string   log backend: slog or zap
//
// Boolean flags take their value with '=' (-legacy-reset=false).
//
// Only flags listed above are considered; args are filtered with
// flagx.FilterArgs first so other flag consumers do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, flagNames)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "HTTP address")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "gRPC address")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	maxConns := fs.Int("m", int(config.DatabaseMaxConns), "max database connections")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.Timezone, "z", config.Timezone, "clinic timezone")
	fs.BoolVar(&config.PresenceLegacyReset, "legacy-reset", config.PresenceLegacyReset, "reset done-set on disconnect and after broadcast")
	fs.BoolVar(&config.AllowEnqueueOnClosedShift, "closed-enqueue", config.AllowEnqueueOnClosedShift, "allow enqueue on closed shifts")
	fs.StringVar(&config.AMQPURL, "q", config.AMQPURL, "AMQP URL")
	fs.StringVar(&config.AMQPExchange, "x", config.AMQPExchange, "AMQP exchange")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "r", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogBackend, "l", config.LogBackend, "log backend")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Only explicitly given numeric flags override, so a file value such as
	// "90s" is not rounded to whole minutes.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "m":
			config.DatabaseMaxConns = int32(*maxConns)
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
	return nil
}
