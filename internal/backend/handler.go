// Package backend serves the crowdfunding and escrow services over JSON-RPC.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/crowdfund/internal/contract"
	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/identity"
	"github.com/rpggio/crowdfund/internal/transport"
)

// ErrUnauthenticated indicates an operation that needs a signed-in caller.
var ErrUnauthenticated = errors.New("authentication required")

// Handler dispatches "<service>.<operation>" methods to the domain services.
type Handler struct {
	profiles *profile.Service
	projects *project.Service
	stats    *escrow.Service
	logger   *slog.Logger
}

// NewHandler creates a backend handler.
func NewHandler(profiles *profile.Service, projects *project.Service, stats *escrow.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handler{profiles: profiles, projects: projects, stats: stats, logger: logger}
}

// Handle implements transport.Handler.
func (h *Handler) Handle(ctx context.Context, method string, params json.RawMessage) (any, error) {
	serviceName, op, ok := strings.Cut(method, ".")
	if !ok {
		return nil, transport.NewError(transport.ErrMethodNotFound, fmt.Sprintf("method not found: %s", method))
	}
	svc, ok := contract.Lookup(serviceName)
	if !ok {
		return nil, transport.NewError(transport.ErrMethodNotFound, fmt.Sprintf("method not found: %s", method))
	}
	if err := svc.CheckParams(op, params); err != nil {
		return nil, toRPCError(err)
	}

	var args []json.RawMessage
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, transport.NewError(transport.ErrInvalidParams, err.Error())
		}
	}

	caller := identity.AnonymousPrincipal
	if id, ok := identity.FromContext(ctx); ok && id.Principal != "" {
		caller = id.Principal
	}
	h.logger.Debug("rpc dispatch", "method", method, "caller", caller)

	var (
		result any
		err    error
	)
	switch serviceName {
	case contract.Escrow.Name():
		result, err = h.escrow(ctx, op, args)
	default:
		result, err = h.backend(ctx, caller, op, args)
	}
	if err != nil {
		return nil, toRPCError(err)
	}
	return result, nil
}

func (h *Handler) backend(ctx context.Context, caller, op string, args []json.RawMessage) (any, error) {
	switch op {
	case contract.OpHealthcheck:
		return true, nil
	case contract.OpGreet:
		return fmt.Sprintf("Hello, %s!", caller), nil
	case contract.OpGetOwnID, contract.OpGetOwnIDText:
		return caller, nil
	case contract.OpGetProfile:
		var id string
		if err := decodeArg(args, 0, &id); err != nil {
			return nil, err
		}
		return h.profiles.Get(ctx, id)
	case contract.OpGetProjects:
		var id string
		if err := decodeArg(args, 0, &id); err != nil {
			return nil, err
		}
		return h.projects.ListByOwner(ctx, id)
	case contract.OpListProjects:
		return h.projects.ListWithOwners(ctx)
	case contract.OpSearchProfiles:
		var query string
		if err := decodeArg(args, 0, &query); err != nil {
			return nil, err
		}
		return h.profiles.Search(ctx, query)
	}

	if caller == identity.AnonymousPrincipal {
		return nil, ErrUnauthenticated
	}

	switch op {
	case contract.OpGetMyProfile:
		return h.profiles.Get(ctx, caller)
	case contract.OpGetMyProjects:
		return h.projects.ListByOwner(ctx, caller)
	case contract.OpCreateProfile:
		var req profile.NewProfile
		if err := decodeArg(args, 0, &req); err != nil {
			return nil, err
		}
		_, err := h.profiles.Create(ctx, caller, req)
		return nil, err
	case contract.OpUpdateProfile:
		var p profile.Profile
		if err := decodeArg(args, 0, &p); err != nil {
			return nil, err
		}
		return nil, h.profiles.Update(ctx, caller, p)
	case contract.OpCreateProject:
		var req project.NewProject
		if err := decodeArg(args, 0, &req); err != nil {
			return nil, err
		}
		return h.projects.Create(ctx, caller, req)
	case contract.OpCreateFirstProject:
		var (
			newProfile profile.NewProfile
			req        project.NewProject
		)
		if err := decodeArg(args, 0, &newProfile); err != nil {
			return nil, err
		}
		if err := decodeArg(args, 1, &req); err != nil {
			return nil, err
		}
		// A rejected project must not leave a profile behind.
		if err := h.projects.Validate(caller, req); err != nil {
			return nil, err
		}
		if _, err := h.profiles.Create(ctx, caller, newProfile); err != nil && !errors.Is(err, profile.ErrProfileExists) {
			return nil, err
		}
		return h.projects.Create(ctx, caller, req)
	}
	return nil, contract.ErrUnknownOperation
}

func (h *Handler) escrow(ctx context.Context, op string, args []json.RawMessage) (any, error) {
	switch op {
	case contract.OpGetProjectStats:
		var id uint64
		if err := decodeArg(args, 0, &id); err != nil {
			return nil, err
		}
		return h.stats.GetProjectStats(ctx, id)
	}
	return nil, contract.ErrUnknownOperation
}

func decodeArg(args []json.RawMessage, i int, dst any) error {
	if i >= len(args) {
		return transport.NewError(transport.ErrInvalidParams, fmt.Sprintf("missing argument %d", i))
	}
	if err := json.Unmarshal(args[i], dst); err != nil {
		return transport.NewError(transport.ErrInvalidParams, fmt.Sprintf("argument %d: %v", i, err))
	}
	return nil
}

func toRPCError(err error) error {
	var rpcErr *transport.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	var schemaErr *contract.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		return transport.NewError(transport.ErrInvalidParams, schemaErr.Error())
	case errors.Is(err, contract.ErrUnknownOperation):
		return transport.NewError(transport.ErrMethodNotFound, err.Error())
	case errors.Is(err, ErrUnauthenticated):
		return transport.NewError(transport.ErrUnauthorizedCode, err.Error())
	case errors.Is(err, profile.ErrProfileNotFound),
		errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, escrow.ErrStatsNotFound):
		return transport.NewError(transport.ErrNotFoundCode, err.Error())
	case errors.Is(err, profile.ErrProfileExists):
		return transport.NewError(transport.ErrConflictCode, err.Error())
	case errors.Is(err, profile.ErrForbidden):
		return transport.NewError(transport.ErrForbiddenCode, err.Error())
	case errors.Is(err, profile.ErrInvalidInput),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, escrow.ErrInvalidInput):
		return transport.NewError(transport.ErrBadInputCode, err.Error())
	default:
		return err
	}
}
