package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Call(t *testing.T) {
	handler := &testHandler{result: map[string]uint64{"nftsSold": 2, "nftPriceE8S": 5}}
	resolver := &testResolver{tokenToPrincipal: map[string]string{"ctx-token": "alice", "static": "bob"}}
	server := httptest.NewServer(NewServer(handler, WithAuth(resolver)))
	t.Cleanup(server.Close)

	tr := NewHTTPTransport(server.URL+"/", WithToken("static"))

	ctx := identity.WithIdentity(context.Background(), identity.Identity{Principal: "alice", Token: "ctx-token"})
	result, err := tr.Call(ctx, "escrow", "getProjectStats", json.RawMessage(`[3]`))
	require.NoError(t, err)
	require.JSONEq(t, `{"nftsSold":2,"nftPriceE8S":5}`, string(result))
	require.Equal(t, "escrow.getProjectStats", handler.method)
	require.JSONEq(t, `[3]`, string(handler.params))
	require.Equal(t, "alice", handler.principal)

	_, err = tr.Call(context.Background(), "backend", "greet", nil)
	require.NoError(t, err)
	require.Equal(t, "bob", handler.principal)
	require.JSONEq(t, `[]`, string(handler.params))
}

func TestHTTPTransport_RemoteError(t *testing.T) {
	handler := &testHandler{err: NewError(ErrUnauthorizedCode, "login required")}
	server := httptest.NewServer(NewServer(handler))
	t.Cleanup(server.Close)

	_, err := NewHTTPTransport(server.URL).Call(context.Background(), "backend", "getMyProfile", nil)
	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	require.Equal(t, ErrUnauthorizedCode, rpcErr.Code)
}

func TestHTTPTransport_HTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	_, err := NewHTTPTransport(server.URL).Call(context.Background(), "backend", "healthcheck", nil)
	require.ErrorContains(t, err, "unexpected status 502")
}

func TestLocalTransport(t *testing.T) {
	handler := &testHandler{result: true}
	tr := NewLocalTransport(handler)

	result, err := tr.Call(context.Background(), "backend", "healthcheck", nil)
	require.NoError(t, err)
	require.Equal(t, json.RawMessage("true"), result)

	handler.result = nil
	result, err = tr.Call(context.Background(), "backend", "createProfile", json.RawMessage(`[{}]`))
	require.NoError(t, err)
	require.Equal(t, json.RawMessage("null"), result)

	handler.err = errors.New("boom")
	_, err = tr.Call(context.Background(), "backend", "greet", nil)
	require.EqualError(t, err, "boom")
}
