package usecases

import (
	"context"
	"io"

	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/http/router/controllers"
	"github.com/lintang-b-s/Segmentx/pkg/segment"
	"github.com/lintang-b-s/Segmentx/pkg/telemetry"
	"go.uber.org/zap"
)

type ReportService struct {
	log    *zap.Logger
	engine ReportEngine
}

func NewReportService(log *zap.Logger, engine ReportEngine) *ReportService {
	return &ReportService{log: log, engine: engine}
}

// Generate. process one uploaded csv with the server options and the request overrides.
func (rs *ReportService) Generate(ctx context.Context, body io.Reader, params controllers.ReportParams) (
	[]*engine.UnitResult, error) {
	opts, err := applyParams(rs.engine.Options(), params)
	if err != nil {
		return nil, err
	}
	name := params.Name
	if name == "" {
		name = "upload"
	}
	return rs.engine.ProcessReader(ctx, body, name, opts)
}

func applyParams(opts engine.Options, params controllers.ReportParams) (engine.Options, error) {
	if params.Unit != "" {
		unit, err := segment.ParseUnit(params.Unit)
		if err != nil {
			return opts, err
		}
		opts.Policy.Unit = unit
	}
	if params.Identity != "" {
		identity, err := segment.ParseIdentity(params.Identity)
		if err != nil {
			return opts, err
		}
		opts.Policy.Identity = identity
	}
	if params.Scenario != "" {
		scenario, err := telemetry.ParseScenario(params.Scenario)
		if err != nil {
			return opts, err
		}
		opts.Scenario = scenario
	}
	if params.GroupBy != "" {
		opts.GroupBy = params.GroupBy
	}
	return opts, nil
}
