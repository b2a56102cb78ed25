package contract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/rpggio/crowdfund/internal/contract"

// Transport performs one remote call with positional JSON params and returns
// the raw JSON result.
type Transport interface {
	Call(ctx context.Context, service, method string, params json.RawMessage) (json.RawMessage, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, service, method string, params json.RawMessage) (json.RawMessage, error)

func (f TransportFunc) Call(ctx context.Context, service, method string, params json.RawMessage) (json.RawMessage, error) {
	return f(ctx, service, method, params)
}

// Invoker shape-checks arguments, performs remote calls and decodes results.
// It never retries.
type Invoker struct {
	service   *Service
	transport Transport
	tracer    trace.Tracer
	logger    *slog.Logger
}

// NewInvoker creates an invoker for a service.
func NewInvoker(service *Service, transport Transport, logger *slog.Logger) *Invoker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Invoker{
		service:   service,
		transport: transport,
		tracer:    otel.Tracer(tracerName),
		logger:    logger,
	}
}

// Service returns the service the invoker calls.
func (i *Invoker) Service() *Service { return i.service }

// Invoke calls op with args and decodes the result into out. out may be nil
// for operations without a return value.
func (i *Invoker) Invoke(ctx context.Context, op string, out any, args ...any) error {
	desc, ok := i.service.Lookup(op)
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownOperation, i.service.Name(), op)
	}

	params, err := i.service.EncodeArgs(op, args...)
	if err != nil {
		i.logger.Debug("rejected remote call arguments", "service", i.service.Name(), "operation", op, "error", err)
		return err
	}

	ctx, span := i.tracer.Start(ctx, i.service.Name()+"."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("rpc.service", i.service.Name()),
			attribute.String("rpc.method", op),
			attribute.String("crowdfund.mode", string(desc.Mode)),
		),
	)
	defer span.End()

	result, err := i.transport.Call(ctx, i.service.Name(), op, params)
	if err != nil {
		return i.fail(span, op, err)
	}

	if err := i.service.CheckResult(op, result); err != nil {
		return i.fail(span, op, err)
	}
	if out == nil || len(desc.Returns) == 0 {
		return nil
	}
	if err := json.Unmarshal(bytes.TrimSpace(result), out); err != nil {
		return i.fail(span, op, fmt.Errorf("decode result: %w", err))
	}
	return nil
}

func (i *Invoker) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	i.logger.Debug("remote call failed", "service", i.service.Name(), "operation", op, "error", err)
	return &RemoteCallError{Operation: op, Err: err}
}
