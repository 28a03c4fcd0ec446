package cli

import (
	"context"

	"livechart/internal/database"
	"livechart/internal/systemcheck"
)

// Manager abstracts core operations for the CLI.
type Manager interface {
	Serve(ctx context.Context, opts ServeOptions) error
	Rejections(ctx context.Context, limit int) ([]database.Rejection, error)
	Send(ctx context.Context, req SendRequest) error
	Check(ctx context.Context) ([]systemcheck.CheckResult, error)
}
