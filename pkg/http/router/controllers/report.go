package controllers

import (
	"fmt"
	"net/http"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/julienschmidt/httprouter"
	"github.com/lintang-b-s/Segmentx/pkg/engine"
	helper "github.com/lintang-b-s/Segmentx/pkg/http/router/routerhelper"
	"github.com/lintang-b-s/Segmentx/pkg/report"
	"go.uber.org/zap"
)

type reportAPI struct {
	reportService ReportService
	maxBodyBytes  int64
	validate      *validator.Validate
	trans         ut.Translator
	log           *zap.Logger
}

func New(reportService ReportService, maxBodyBytes int64, log *zap.Logger) *reportAPI {
	validate := validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ := uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)

	return &reportAPI{
		reportService: reportService,
		maxBodyBytes:  maxBodyBytes,
		validate:      validate,
		trans:         trans,
		log:           log,
	}
}

func (api *reportAPI) Routes(group *helper.RouteGroup) {
	group.POST("/reports", api.textReport)
	group.POST("/reports/json", api.jsonReport)
}

func (api *reportAPI) params(r *http.Request) (ReportParams, error) {
	query := r.URL.Query()
	params := ReportParams{
		Name:     query.Get("name"),
		Unit:     query.Get("unit"),
		Identity: query.Get("identity"),
		Scenario: query.Get("scenario"),
		GroupBy:  query.Get("group_by"),
	}
	if err := api.validate.Struct(params); err != nil {
		vv := translateError(err, api.trans)
		vvString := []string{}
		for _, v := range vv {
			vvString = append(vvString, v.Error())
		}
		return params, fmt.Errorf("validation error: %v", vvString)
	}
	return params, nil
}

func (api *reportAPI) generate(w http.ResponseWriter, r *http.Request) ([]*engine.UnitResult, bool) {
	params, err := api.params(r)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return nil, false
	}
	body := r.Body
	if api.maxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, api.maxBodyBytes)
	}
	defer body.Close()

	results, err := api.reportService.Generate(r.Context(), body, params)
	if err != nil {
		api.getStatusCode(w, r, err)
		return nil, false
	}
	return results, true
}

func (api *reportAPI) textReport(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	results, ok := api.generate(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := report.WriteAll(w, engine.Reports(results)); err != nil {
		api.log.Error("write report response", zap.Error(err))
	}
}

func (api *reportAPI) jsonReport(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	results, ok := api.generate(w, r)
	if !ok {
		return
	}
	headers := make(http.Header)
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewUnitResponses(results)}, headers); err != nil {
		api.ServerErrorResponse(w, r, err)
		return
	}
}
