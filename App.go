package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/gin-gonic/gin"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const ExitCodeMainError = 1

const shutdownTimeout = 10 * time.Second

// RunApp serves the HTTP API until ctx is cancelled or the server fails.
func RunApp(ctx context.Context, config Config) error {
	gin.SetMode(gin.ReleaseMode)

	if err := config.Validate(); err != nil {
		return err
	}

	serviceContainer, err := BuildServiceContainer(config)
	if err != nil {
		return err
	}

	serviceContainer.WebhookDispatcher.Start()
	defer func() {
		if closeErr := serviceContainer.Close(); closeErr != nil {
			slog.Error("close service container", slog.String("error", closeErr.Error()))
		}
	}()

	server := &http.Server{
		Addr:    config.ListenAddress,
		Handler: serviceContainer.Router,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("listening", slog.String("address", config.ListenAddress))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err = <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	}
}

func HandleExitError(errStream io.Writer, err error) int {
	if err != nil {
		_, _ = fmt.Fprintln(errStream, err)
		return ExitCodeMainError
	}

	return 0
}
