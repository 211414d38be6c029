package cli

import (
	"errors"
	"fmt"
	"time"

	middleware "github.com/phillip/chama-tracker-go/middleware"
)

// TokenCmd mints an HS256 token accepted by the write guard.
type TokenCmd struct {
	Subject string        `short:"s" long:"subject" default:"treasurer" description:"token subject"`
	TTL     time.Duration `long:"ttl" default:"24h" description:"token lifetime"`
	Secret  string        `long:"secret" env:"JWT_SECRET" description:"signing secret"`
}

func (c *TokenCmd) Execute(_ []string) error {
	secret := c.Secret
	if secret == "" {
		secret = loadConfig().JWTSecret
	}
	if secret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := middleware.IssueToken(secret, c.Subject, c.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
