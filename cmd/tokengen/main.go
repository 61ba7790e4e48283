// Command tokengen issues a bearer token for local testing against the server.
//
//	tokengen -user alice -name "Alice Smith"
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mmynk/tripsplit/internal/auth"
	"github.com/mmynk/tripsplit/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	userID := flag.String("user", "", "user ID to put in the token (required)")
	name := flag.String("name", "", "display name (defaults to the user ID)")
	duration := flag.Duration("duration", 0, "token lifetime (defaults to jwt.token_duration)")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ttl := cfg.JWT.TokenDuration
	if *duration > 0 {
		ttl = *duration
	}

	token, err := auth.NewJWTManager(cfg.JWT.Secret, ttl).Generate(*userID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
