package usecases

import (
	"context"
	"io"

	"github.com/lintang-b-s/Segmentx/pkg/engine"
)

type ReportEngine interface {
	Options() engine.Options
	ProcessReader(ctx context.Context, r io.Reader, name string, opts engine.Options) ([]*engine.UnitResult, error)
}
