package settings

import "context"

type runKey struct{}

// IntoContext attaches the run settings to ctx.
func IntoContext(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

// FromContext returns the run settings stored by IntoContext.
func FromContext(ctx context.Context) (*Run, bool) {
	r, ok := ctx.Value(runKey{}).(*Run)
	return r, ok && r != nil
}

// RunFrom is FromContext with NewCliParams as the fallback, for code paths
// that may run without the CLI's setup.
func RunFrom(ctx context.Context) *Run {
	if r, ok := FromContext(ctx); ok {
		return r
	}
	return NewCliParams()
}
