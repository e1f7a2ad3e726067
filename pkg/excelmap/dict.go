package excelmap

import (
	"context"
	"errors"
)

// ErrDictNotFound is returned by resolvers for unknown codes. The raw code is
// then written without recording an issue.
var ErrDictNotFound = errors.New("excelmap: dictionary label not found")

// DictResolver translates dictionary codes into display labels.
type DictResolver interface {
	Label(ctx context.Context, dictType, value string) (string, error)
}

// DictResolverFunc adapts a function to DictResolver.
type DictResolverFunc func(ctx context.Context, dictType, value string) (string, error)

func (f DictResolverFunc) Label(ctx context.Context, dictType, value string) (string, error) {
	return f(ctx, dictType, value)
}

// StaticDict is an in-memory resolver keyed by dictionary type, then code.
type StaticDict map[string]map[string]string

func (d StaticDict) Label(_ context.Context, dictType, value string) (string, error) {
	if label, ok := d[dictType][value]; ok {
		return label, nil
	}
	return "", ErrDictNotFound
}
