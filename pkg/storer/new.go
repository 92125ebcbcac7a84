package storer

import (
	"context"
	"errors"
	"os"
	"strings"
)

// New creates a storer based on the `uri` string. An empty uri disables storage.
func New(ctx context.Context, uri, cert string, createTables bool) (Storer, error) {
	switch {
	case uri == "":
		return NewNopStorer(), nil
	case strings.EqualFold(uri, "stdout"):
		return NewLogStorer(os.Stdout), nil
	case strings.EqualFold(uri, "stderr"):
		return NewLogStorer(os.Stderr), nil
	case strings.HasPrefix(uri, "mysql:"):
		return NewMySQLStorer(ctx, uri, cert, createTables)
	default:
		return nil, errors.New("unsupported storer uri format")
	}
}
