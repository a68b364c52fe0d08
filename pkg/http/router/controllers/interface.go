package controllers

import (
	"context"
	"io"

	"github.com/lintang-b-s/Segmentx/pkg/engine"
)

type ReportService interface {
	Generate(ctx context.Context, body io.Reader, params ReportParams) ([]*engine.UnitResult, error)
}
