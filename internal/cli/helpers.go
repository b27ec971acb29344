package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cfgtrust/cfgtrust/internal/bootstrap"
	"github.com/cfgtrust/cfgtrust/internal/config"
	"github.com/cfgtrust/cfgtrust/internal/observability"
	otelobs "github.com/cfgtrust/cfgtrust/internal/observability/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// loadRepo resolves the effective configuration: an explicit --config path
// when given, otherwise discovery across the default candidate list.
func loadRepo(configPath string) (*config.Repository, string, error) {
	if configPath != "" {
		repo, err := bootstrap.LoadFile(configPath)
		if err != nil {
			return nil, configPath, err
		}
		return repo, configPath, nil
	}

	result, err := bootstrap.Load(bootstrap.DefaultCandidatePaths())
	if err != nil {
		return nil, "", err
	}
	return result.Repo, result.SelectedPath, nil
}

// startSpan opens an OTel span when tracing is enabled. The returned
// finish func records the command error and ends the span; it is a no-op
// when tracing is off.
func startSpan(ctx context.Context, command string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	h := otelobs.From(ctx)
	if h == nil {
		return ctx, func(error) {}
	}

	attrs = append([]attribute.KeyValue{
		attribute.String("cfgtrust.op_id", observability.OpID(ctx)),
		attribute.String("cfgtrust.command", command),
	}, attrs...)

	ctx, span := h.Tracer.Start(ctx, "cfgtrust."+command, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed")
		} else {
			span.SetStatus(codes.Ok, "success")
		}
		span.End()
	}
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format: %s (use text or json)", format)
	}
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format JSON output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
