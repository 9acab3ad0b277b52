package logging

import (
	"context"

	"github.com/go-logr/logr"
)

// Event types recorded while a stack is composed.
const (
	EventComponentRegistered = "component_registered"
	EventResourceDeclared    = "resource_declared"
	EventOutputExported      = "output_exported"
)

// Logger records composition events as structured log lines.
type Logger struct {
	logFn func(ctx context.Context, msg string, args ...any)
}

// NewLogger writes events to the logr.Logger found in the context.
func NewLogger() *Logger {
	return &Logger{
		logFn: func(ctx context.Context, msg string, args ...any) {
			logr.FromContextOrDiscard(ctx).V(0).Info(msg, args...)
		},
	}
}

func (l *Logger) Log(ctx context.Context, eventType, msg string, field ...any) {
	enrichedFields := []any{"eventType", eventType}
	enrichedFields = append(enrichedFields, field...)
	l.logFn(ctx, msg, enrichedFields...)
}

func (l *Logger) WithLogFn(fn func(ctx context.Context, msg string, args ...any)) *Logger {
	l.logFn = fn
	return l
}

func (l *Logger) ComponentRegistered(ctx context.Context, urn string, readinessGroup int, dependsOn []string) {
	l.Log(ctx, EventComponentRegistered, "registered component", "urn", urn, "readinessGroup", readinessGroup, "dependsOn", dependsOn)
}

func (l *Logger) ResourceDeclared(ctx context.Context, kind, namespace, name, component string) {
	l.Log(ctx, EventResourceDeclared, "declared resource",
		"resourceKind", kind, "resourceNamespace", namespace, "resourceName", name, "component", component)
}

// OutputExported never logs the value of a secret output.
func (l *Logger) OutputExported(ctx context.Context, owner, name, value string, secret bool) {
	if secret {
		value = "[secret]"
	}
	l.Log(ctx, EventOutputExported, "exported output", "owner", owner, "output", name, "value", value)
}
