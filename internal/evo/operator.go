package evo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"evodex/internal/gene"
)

var (
	ErrRandomSource = errors.New("random source is required")
	ErrArity        = errors.New("wrong number of parents")
)

// Operator turns one or more parent genotypes into a new genotype. Parents
// are never modified.
type Operator interface {
	Name() string
	Arity() int
	Apply(ctx context.Context, parents ...gene.Record) (gene.Record, error)
}

func checkArity(op Operator, parents []gene.Record) error {
	if len(parents) != op.Arity() {
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, op.Name(), op.Arity(), len(parents))
	}
	for i, p := range parents {
		if p == nil {
			return fmt.Errorf("%w: %s parent %d is nil", gene.ErrSchemaMismatch, op.Name(), i)
		}
	}
	return nil
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
