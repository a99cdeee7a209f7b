package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	ds "github.com/andredosreis/contacts-api/datastores"
	"github.com/andredosreis/contacts-api/handlers"
	"github.com/andredosreis/contacts-api/router"
)

type ServerOptions struct {
	Host              string        `short:"H" doc:"host to listen on"                    default:""`
	Port              string        `short:"p" doc:"port to listen on"                    default:"3000"`
	ReadHeaderTimeout time.Duration `          doc:"time allowed to read request headers" default:"15s"`
}

func NewServer(options *ServerOptions, handler http.Handler, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              options.Host + ":" + options.Port,
		ReadHeaderTimeout: options.ReadHeaderTimeout,
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}
}

type RouterOptions struct {
	EndpointsPrefix string `doc:"mount endpoints at a prefix" default:""`
}

func NewRouter(
	options *RouterOptions,
	title string,
	version string,
	revision string,
	created string,
	store ds.ContactsStore,
	logger *slog.Logger,
	opts ...func(huma.API),
) http.Handler {
	buildinfoMetric := joinQuote("build_info{goversion=", runtime.Version(),
		",title=", title,
		",version=", version,
		",revision=", revision,
		",created=", created,
		"} 1\n")
	metriks := metrics.NewSet()
	return router.New(title, version,
		readiness(store, logger),
		func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, buildinfoMetric)
			metriks.WritePrometheus(w)
			metrics.WriteProcessMetrics(w)
		},
		append([]func(huma.API){
			router.OptUseMiddleware(
				ctxlog{}.loggerMiddleware(logger),
				meterRequests(metriks),
				ctxlog{}.recoverMiddleware(logger),
			),
			router.OptGroup(options.EndpointsPrefix,
				router.OptAutoRegister(&handlers.Contacts{
					Store:        store,
					ErrorHandler: ctxlog{}.errorHandler(logger, metriks),
				}),
			),
		}, opts...)...,
	)
}

// readiness answers [http.StatusServiceUnavailable] while the store cannot be reached.
func readiness(store ds.ContactsStore, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.Ping(r.Context())
		if err != nil {
			logger.LogAttrs(r.Context(), slog.LevelWarn, "store not ready", slog.Any("err", err))
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		}
	}
}

// ctxlog is a [context.Context] key and acts as a virtual package for operations related to it.
type ctxlog struct{}

const requestIDHeader = "X-Request-Id"

// loggerMiddleware returns a middleware that sets a [slog.Logger] in
// the [context.Context] and logs the request after it has terminated.
// Requests without an X-Request-Id header get a generated one, echoed in
// the response.
func (key ctxlog) loggerMiddleware(parent *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		requestID := ctx.Header(requestIDHeader)
		if requestID == "" {
			requestID = uuid.Must(uuid.NewV7()).String()
		}
		ctx.SetHeader(requestIDHeader, requestID)
		logger := parent.With("x-request-id", requestID)

		start := time.Now()
		next(huma.WithValue(ctx, key, logger.WithGroup("op").With("id", ctx.Operation().OperationID)))

		logger.LogAttrs(context.Background(), slog.LevelInfo, "request",
			slog.String("method", ctx.Operation().Method),
			slog.String("path", ctx.Operation().Path),
			slog.String("proto", ctx.Version().Proto),
			slog.String("from", ctx.RemoteAddr()),
			slog.String("ref", ctx.Header("Referer")),
			slog.String("ua", ctx.Header("User-Agent")),
			slog.Int("status", ctx.Status()),
			slog.Duration("dur", time.Since(start)),
		)
	}
}

// logger returns the request [slog.Logger] stored in ctx, or fallback.
func (key ctxlog) logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return fallback
}

// recoverMiddleware returns a middleware that recovers and logs the value from
// panic, then answers [http.StatusInternalServerError] with the usual error body.
func (key ctxlog) recoverMiddleware(fallback *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			logger := key.logger(ctx.Context(), fallback)
			logger.LogAttrs(context.Background(), slog.LevelError, "panic occurred", slog.Any("recovered", v))

			ctx.SetHeader("Content-Type", "application/json")
			ctx.SetStatus(http.StatusInternalServerError)
			err := json.NewEncoder(ctx.BodyWriter()).Encode(handlers.NewError(http.StatusInternalServerError, "internal error"))
			if err != nil {
				logger.LogAttrs(context.Background(), slog.LevelError, "write error body", slog.Any("err", err))
			}
		}()
		next(ctx)
	}
}

// errorHandler returns a function that logs errors returned by contact
// operations and counts them by kind in set. Server errors are logged at
// error level, client errors at warn level.
func (key ctxlog) errorHandler(fallback *slog.Logger, set *metrics.Set) func(context.Context, error) {
	return func(ctx context.Context, err error) {
		level := slog.LevelError
		attrs := []slog.Attr{slog.Any("err", err)}

		kind := "unclassified"
		var model *handlers.ErrorModel
		if errors.As(err, &model) {
			if model.GetStatus() < http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			attrs = append(attrs, slog.Int("status", model.GetStatus()))
			kind = model.Kind()
		}
		if kind != "" {
			attrs = append(attrs, slog.String("kind", kind))
			set.GetOrCreateCounter(joinQuote("contacts_errors_total{kind=", kind, "}")).Inc()
		}

		key.logger(ctx, fallback).LogAttrs(context.Background(), level, "error occurred", attrs...)
	}
}

// meterRequests returns a middleware counting requests and their duration
// per operation and response status.
func meterRequests(set *metrics.Set) func(huma.Context, func(huma.Context)) {
	buckets := metrics.ExponentialBuckets(1e-3, 5, 6) //nolint: mnd // 1ms to ~3s

	return func(ctx huma.Context, next func(huma.Context)) {
		op, start := ctx.Operation(), time.Now()
		next(ctx)

		labels := joinQuote("{method=", op.Method, ",path=", op.Path, ",status=", strconv.Itoa(ctx.Status()), "}")
		set.GetOrCreateCounter("http_requests_total" + labels).Inc()
		set.GetOrCreatePrometheusHistogramExt("http_request_duration_seconds"+labels, buckets).UpdateDuration(start)
	}
}

// joinQuote joins elems with '"', which is how label values are quoted
// in metric names.
func joinQuote(elems ...string) string { return strings.Join(elems, `"`) }
