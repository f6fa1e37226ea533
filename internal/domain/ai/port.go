package ai

import "context"

type Client interface {
	Report(ctx context.Context, checkJSON string) (string, error)
}
