// Package generation abstracts the external text-generation capability used
// to turn activity facts into recommendations.
package generation

import "context"

// Generator produces free text for a prompt. Implementations are expected
// to bound the round trip with the supplied context.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function to the Generator interface.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate implements Generator.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
