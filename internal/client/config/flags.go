package config

import (
	"flag"
	"io"
	"time"

	"github.com/hamarchia/ClinicSystem/internal/flagx"
)

var flagNames = []string{"a", "t", "i"}

// parseFlags reads:
//
//	-a string   address of the presence gRPC endpoint
//	-t string   access token issued by the server
//	-i int      reconnect interval in seconds
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, flagNames)

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the presence endpoint")
	fs.StringVar(&cfg.AccessToken, "t", cfg.AccessToken, "access token")
	interval := fs.Int("i", int(cfg.ReconnectInterval.Seconds()), "reconnect interval (in seconds)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.ReconnectInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
