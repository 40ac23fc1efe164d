// Command tokenctl mints caller tokens and identities for operators and
// local development. It reads JWT_SIGNING_KEY and JWT_ISSUER like the server.
//
//	tokenctl identity
//	tokenctl issue -identity 0x8eaf...6a48 -ttl 30m
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"proptoken/internal/callerauth/token"
	"proptoken/internal/platform/config"
	"proptoken/pkg/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "tokenctl: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tokenctl <identity|issue> [flags]")
	}
	switch args[0] {
	case "identity":
		id, err := domain.NewRandomIdentity()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, id.String())
		return err
	case "issue":
		return issue(args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func issue(args []string, out io.Writer) error {
	auth, err := env.ParseAs[config.Auth]()
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	fs := flag.NewFlagSet("issue", flag.ContinueOnError)
	identity := fs.String("identity", "", "hex identity the token is issued to")
	ttl := fs.Duration("ttl", auth.TokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	caller, err := domain.ParseIdentity(*identity)
	if err != nil {
		return err
	}
	if *ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", *ttl)
	}
	if *ttl > auth.TokenTTL {
		return fmt.Errorf("ttl %s exceeds TOKEN_TTL %s", *ttl, auth.TokenTTL)
	}

	signed, jti, err := token.NewService(auth.JWTSigningKey, auth.JWTIssuer).Issue(caller, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "jti=%s expires=%s\n", jti, time.Now().Add(*ttl).UTC().Format(time.RFC3339))
	_, err = fmt.Fprintln(out, signed)
	return err
}
