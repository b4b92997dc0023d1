// Command service runs the view counter HTTP API.
package main

import (
	"context"
	"net"
	gohttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rwool/viewcounter/pkg/config"
	"github.com/rwool/viewcounter/pkg/endpoint"
	"github.com/rwool/viewcounter/pkg/http"
	"github.com/rwool/viewcounter/pkg/service"
	"github.com/rwool/viewcounter/pkg/service/counterstore"
)

const shutdownTimeout = 10 * time.Second

func main() {
	l := log.NewJSONLogger(os.Stderr)
	l = log.With(l, "TS", log.DefaultTimestampUTC)

	if err := run(l); err != nil {
		_ = l.Log("LEVEL", "ERROR", "MESSAGE", err)
		os.Exit(1)
	}
}

func run(l log.Logger) error {
	conf, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The store client is opened once here and shared by every request.
	store, err := counterstore.Open(ctx, conf.Store)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s counter store", conf.Store.Backend)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			_ = l.Log("LEVEL", "WARN", "MESSAGE", err)
		}
	}()
	_ = l.Log("LEVEL", "INFO", "MESSAGE", "Counter store connected", "BACKEND", conf.Store.Backend)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := endpoint.NewMetrics(reg)
	if err != nil {
		return err
	}

	// Business logic.
	viewService := service.NewViewService(store, service.WebsiteViews, l)

	// Endpoints.
	endpoints := endpoint.MakeEndpoints(viewService, metrics)

	// Transports.
	httpHandler := http.NewAPIHTTPHandler(endpoints, http.Config{
		AllowedOrigins: conf.AllowedOrigins,
		Log:            l,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	server, err := serveHTTP(conf.Addr(), httpHandler)
	if err != nil {
		return err
	}
	_ = l.Log("LEVEL", "INFO", "MESSAGE", "Server running on port "+conf.Port)
	return server(ctx, l)
}

func serveHTTP(addr string, h gohttp.Handler) (func(context.Context, log.Logger) error, error) {
	// Separate listening and serving to capture listen errors.
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create TCP listener")
	}
	srv := &gohttp.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return func(ctx context.Context, logger log.Logger) error {
		group, gctx := errgroup.WithContext(ctx)
		group.Go(func() error {
			err := srv.Serve(lis)
			if err == gohttp.ErrServerClosed {
				return nil
			}
			return errors.WithStack(err)
		})
		group.Go(func() error {
			<-gctx.Done()
			_ = logger.Log("LEVEL", "INFO", "MESSAGE", "Shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return errors.Wrap(srv.Shutdown(ctx), "unable to shut down HTTP server")
		})
		return group.Wait()
	}, nil
}
