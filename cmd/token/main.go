package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/utils"
	"github.com/urfave/cli/v3"
)

// token prints a bearer token accepted by the server's guard on mutating routes.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Mint an HS256 bearer token for the catalog API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "subject",
				Aliases: []string{"s"},
				Value:   "catalog-admin",
				Usage:   "Subject claim of the token",
			},
			&cli.DurationFlag{
				Name:    "ttl",
				Aliases: []string{"t"},
				Value:   24 * time.Hour,
				Usage:   "How long the token stays valid",
			},
			&cli.StringFlag{
				Name:  "secret",
				Usage: "Signing secret, defaults to AUTH_JWT_SECRET from the server configuration",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			secret := cmd.String("secret")
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("invalid configuration: %w", err)
				}
				secret = cfg.AuthJWTSecret
			}
			if secret == "" {
				return errors.New("no signing secret: set AUTH_JWT_SECRET or pass --secret")
			}

			ttl := cmd.Duration("ttl")
			if ttl <= 0 {
				return fmt.Errorf("ttl must be positive, got %s", ttl)
			}

			token, err := utils.GenerateToken(cmd.String("subject"), secret, ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.Root().Writer, token)
			return err
		},
	}
}
