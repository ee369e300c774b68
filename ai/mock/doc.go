// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder returns deterministic unit vectors derived from a text hash,
// MockGenerator returns a canned answer and records every prompt pair, and
// MockProvider bundles the two. Behavior can be replaced through the exported
// function fields.
//
//	gen := mock.NewMockGenerator()
//	gen.CompleteFunc = func(ctx context.Context, system, user string) (string, error) {
//	    return "", errors.New("model unavailable")
//	}
package mock
