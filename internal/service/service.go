// Package service holds the use cases. It owns the consistency policy between
// the relational store, the advisory cache, object storage and the
// notification hub.
package service

import (
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"docvault/internal/apperror"
	"docvault/internal/repository"
)

var tracer = otel.Tracer("docvault/internal/service")

// endSpan records err on span before ending it. Use with a named error return.
func endSpan(span trace.Span, err *error) {
	if *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}

// classify turns repository sentinels into application errors. resource
// names the entity in not-found messages.
func classify(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperror.NotFound(resource).WithErr(err)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperror.BadRequest("Invalid category").WithErr(err)
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	return apperror.Internal(err)
}
