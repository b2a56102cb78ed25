package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/transport"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func newTransport(logger *slog.Logger) *transport.HTTPTransport {
	opts := []transport.HTTPOption{
		transport.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		transport.WithClientLogger(logger),
	}
	if token != "" {
		opts = append(opts, transport.WithToken(token))
	}
	return transport.NewHTTPTransport(backendURL, opts...)
}

func newClients(logger *slog.Logger) (*contract.BackendClient, *contract.EscrowClient) {
	t := newTransport(logger)
	return contract.NewBackendClient(t, logger), contract.NewEscrowClient(t, logger)
}
