package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/andredosreis/contacts-api/cli/api"
	"github.com/andredosreis/contacts-api/cli/datastore"
	"github.com/andredosreis/contacts-api/cli/logger"
	ds "github.com/andredosreis/contacts-api/datastores"
)

const title = "Contacts API"

// Set with -ldflags "-X main.version=... -X main.revision=... -X main.created=...".
var (
	version  = "dev"
	revision = ""
	created  = ""
)

// Options for the CLI. Pass `--port` or set the `SERVICE_PORT` env var.
type Options struct {
	api.ServerOptions
	api.RouterOptions
	logger.Options
	datastore.StoreOptions
}

// legacyEnv maps the variables of a plain `.env` file onto the humacli ones.
var legacyEnv = map[string]string{ //nolint: gochecknoglobals,nolintlint
	"PORT":      "SERVICE_PORT",
	"MONGO_URI": "SERVICE_MONGO_URI",
}

func loadEnv() {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("could not load .env file", "err", err)
	}
	for from, to := range legacyEnv {
		value, ok := os.LookupEnv(from)
		if _, set := os.LookupEnv(to); ok && !set {
			os.Setenv(to, value) //nolint: errcheck // keys are valid
		}
	}
	if _, ok := os.LookupEnv("MONGO_URI"); ok {
		if _, set := os.LookupEnv("SERVICE_STORE"); !set {
			os.Setenv("SERVICE_STORE", "mongo") //nolint: errcheck // keys are valid
		}
	}
}

func main() {
	loadEnv()

	var options *Options
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		options = opts
		logger := logger.New(&opts.Options)
		srv := api.NewServer(&opts.ServerOptions, nil, logger)

		var (
			mu         sync.Mutex
			closeStore func(context.Context) error
		)
		hooks.OnStart(func() {
			store, closer, err := datastore.Open(context.Background(), &opts.StoreOptions, logger)
			if err != nil {
				logger.Error("failed to open store", "err", err)
				os.Exit(1)
			}
			mu.Lock()
			closeStore = closer
			mu.Unlock()

			srv.Handler = api.NewRouter(&opts.RouterOptions, title, version, revision, created, store, logger)
			logger.Info("listening", "addr", srv.Addr, "store", opts.Store)
			err = srv.ListenAndServe()
			if err != http.ErrServerClosed {
				logger.Error("failed to listen and serve", "err", err)
			} else {
				logger.Info("server closed")
			}
		})
		hooks.OnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			err := srv.Shutdown(ctx)
			if err != nil {
				logger.Warn("could not shutdown the server", "err", err)
			}
			mu.Lock()
			defer mu.Unlock()
			if closeStore != nil {
				err = closeStore(ctx)
				if err != nil {
					logger.Warn("could not close the store", "err", err)
				}
			}
		})
	})

	cli.Root().Use = "contacts-api"
	cli.Root().AddCommand(&cobra.Command{
		Use:   "openapi",
		Short: "Print the OpenAPI document",
		Run: func(cmd *cobra.Command, _ []string) {
			var openapi *huma.OpenAPI
			api.NewRouter(&options.RouterOptions, title, version, revision, created,
				ds.NewContactsInmem(), slog.New(slog.DiscardHandler),
				func(a huma.API) { openapi = a.OpenAPI() },
			)
			b, err := openapi.YAML()
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(b))
		},
	})
	cli.Run()
}
