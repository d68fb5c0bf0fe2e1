package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"google.golang.org/grpc"

	"github.com/rl1809/westock/internal/adapter/handler"
	"github.com/rl1809/westock/internal/core/domain"
)

// Serve runs the local HTTP API and the gRPC health service until ctx is
// cancelled, then shuts both down and waits for them.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.Config.Server

	a.Repo.OnReplaced(func(doc domain.Document) {
		a.Log.Info("document replaced from remote",
			slog.Int("items", len(doc.Items)),
			slog.Int("bundles", len(doc.Bundles)),
		)
	})

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}

	grpcServer := grpc.NewServer()
	grpcHandler := handler.NewGRPCHandler(a.Log, a.Remote, 0)
	grpcHandler.Register(grpcServer)

	httpHandler := handler.NewHTTPHandler(a.Log, handler.Services{
		Repo:       a.Repo,
		Sync:       a.Sync,
		Share:      a.Share,
		Backup:     a.Backup,
		Store:      a.Store,
		Classifier: a.Classifier,
	}, a.Config.Remote.Timeout)

	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	probeCtx, stopProbe := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(3)
	go func() {
		defer wg.Done()
		grpcHandler.Run(probeCtx)
	}()
	go func() {
		defer wg.Done()
		a.Log.Info("gRPC server listening", slog.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		defer wg.Done()
		a.Log.Info("HTTP server listening", slog.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	a.Log.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		a.Log.Warn("http shutdown", slog.Any("error", err))
	}
	a.Log.Info("HTTP server stopped")

	stopProbe()
	grpcServer.GracefulStop()
	a.Log.Info("gRPC server stopped")

	wg.Wait()
	return serveErr
}
