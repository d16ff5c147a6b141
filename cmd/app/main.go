package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omnicart/channelbridge/internal/app"
)

func main() {
	cmd := &cli.Command{
		Name:  "channelbridge",
		Usage: "OMS-to-marketplace message ingestion and event log",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Value: ":8080",
				Usage: "HTTP listen address",
			},
			&cli.StringFlag{
				Name:  "db-path",
				Value: "./channelbridge.sqlite",
				Usage: "SQLite event-log file path",
			},
			&cli.StringFlag{
				Name:    "config",
				Value:   "./channelbridge.json",
				Sources: cli.EnvVars("CHANNELBRIDGE_CONFIG"),
				Usage:   "Channel and scheduled-job configuration file",
			},
			&cli.StringFlag{
				Name:    "webhook-url",
				Sources: cli.EnvVars("CHANNELBRIDGE_WEBHOOK_URL"),
				Usage:   "Notification webhook for error-level events (enables the forwarder)",
			},
			&cli.StringFlag{
				Name:    "webhook-secret",
				Sources: cli.EnvVars("CHANNELBRIDGE_WEBHOOK_SECRET"),
				Usage:   "HMAC-SHA256 signing secret for outbound notifications",
			},
			&cli.StringFlag{
				Name:    "feed-url",
				Sources: cli.EnvVars("CHANNELBRIDGE_FEED_URL"),
				Usage:   "OMS feed base URL for scheduled pulls",
			},
			&cli.StringFlag{
				Name:    "feed-api-key",
				Sources: cli.EnvVars("CHANNELBRIDGE_FEED_API_KEY"),
				Usage:   "API key for the OMS feed endpoint",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := app.Config{
				Addr:          c.String("addr"),
				DBPath:        c.String("db-path"),
				ConfigPath:    c.String("config"),
				WebhookURL:    c.String("webhook-url"),
				WebhookSecret: c.String("webhook-secret"),
				FeedBaseURL:   c.String("feed-url"),
				FeedAPIKey:    c.String("feed-api-key"),
			}

			server, closer, err := app.NewServer(ctx, cfg)
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}
			defer func() {
				if closeErr := closer.Close(); closeErr != nil {
					log.Printf("close resources: %v", closeErr)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				log.Printf("listening on %s", cfg.Addr)
				errCh <- server.ListenAndServe()
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case sig := <-sigCh:
				log.Printf("received signal %s", sig)
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
