package usecases

import (
	"testing"

	"github.com/lintang-b-s/Segmentx/pkg/engine"
	"github.com/lintang-b-s/Segmentx/pkg/http/router/controllers"
	"github.com/lintang-b-s/Segmentx/pkg/segment"
	"github.com/lintang-b-s/Segmentx/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyParams(t *testing.T) {
	base := engine.Options{
		Policy:   segment.DefaultPolicy(),
		Scenario: telemetry.BOTH_GATES,
		GroupBy:  engine.GROUP_BY_DAY,
	}

	testCases := []struct {
		name    string
		params  controllers.ReportParams
		want    engine.Options
		wantErr bool
	}{
		{name: "no overrides", want: base},
		{
			name:   "all overrides",
			params: controllers.ReportParams{Unit: "minutes", Identity: "coordinate", Scenario: "all", GroupBy: "file"},
			want: engine.Options{
				Policy:   segment.Policy{Unit: segment.MINUTES, Identity: segment.IDENTITY_COORDINATE},
				Scenario: telemetry.ALL,
				GroupBy:  engine.GROUP_BY_FILE,
			},
		},
		{name: "bad unit", params: controllers.ReportParams{Unit: "hours"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applyParams(base, tc.params)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
