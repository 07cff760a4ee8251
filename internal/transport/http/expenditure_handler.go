package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"milexcli/internal/config"
	apperrors "milexcli/internal/errors"
	appmiddleware "milexcli/internal/middleware"
)

type yearRequest struct {
	Year int `query:"year" validate:"gte=1,lte=9999"`
}

type topRequest struct {
	Year int `query:"year" validate:"gte=1,lte=9999"`
	N    int `query:"n" validate:"gte=0,lte=200"`
}

type comparisonRequest struct {
	Countries []string `query:"countries" validate:"required,min=1,max=50,dive,country"`
	StartYear int      `query:"startYear" validate:"required,gte=1,lte=9999"`
	EndYear   int      `query:"endYear" validate:"required,gte=1,lte=9999,gtefield=StartYear"`
}

type trendRequest struct {
	StartYear int `query:"startYear" validate:"gte=1,lte=9999"`
	EndYear   int `query:"endYear" validate:"gte=1,lte=9999,gtefield=StartYear"`
}

type growthRequest struct {
	Country   string `query:"country" validate:"required,country"`
	StartYear int    `query:"startYear" validate:"required,gte=1,lte=9999"`
	EndYear   int    `query:"endYear" validate:"required,gte=1,lte=9999"`
}

type regionTotalRequest struct {
	Region string `query:"region" validate:"required,region"`
	Year   int    `query:"year" validate:"gte=1,lte=9999"`
}

// ExpenditureHandler serves the analytical queries over the expenditure
// tables. Every failure is answered with RFC 7807 problem details.
type ExpenditureHandler struct {
	service      ExpenditureServiceInterface
	validator    *appmiddleware.Validator
	logger       *slog.Logger
	errorHandler *apperrors.ErrorHandler
	baseYear     int
	endYear      int
}

// NewExpenditureHandler creates a handler. Trend queries without explicit
// bounds span the configured default year range.
func NewExpenditureHandler(service ExpenditureServiceInterface, validator *appmiddleware.Validator, logger *slog.Logger, errorHandler *apperrors.ErrorHandler) *ExpenditureHandler {
	return &ExpenditureHandler{
		service:      service,
		validator:    validator,
		logger:       logger.With(slog.String("component", "expenditure_handler")),
		errorHandler: errorHandler,
		baseYear:     config.DefaultBaseYear,
		endYear:      config.DefaultEndYear,
	}
}

// WithYearRange overrides the default trend bounds
func (h *ExpenditureHandler) WithYearRange(baseYear, endYear int) *ExpenditureHandler {
	h.baseYear = baseYear
	h.endYear = endYear
	return h
}

// Routes returns the expenditure routes as a standalone router
func (h *ExpenditureHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes adds the expenditure routes to r, which is mounted at /api
func (h *ExpenditureHandler) RegisterRoutes(r chi.Router) {
	r.Get("/global/{year}", h.GetGlobal)
	r.Get("/map/{year}", h.GetMap)
	r.Get("/top/{year}", h.GetTop)
	r.Get("/comparison", h.GetComparison)
	r.Get("/trend", h.GetTrend)
	r.Get("/countries", h.GetCountries)
	r.Get("/years", h.GetYears)
	r.Get("/growth", h.GetGrowth)
	r.Get("/summary/{year}", h.GetSummary)

	r.Route("/regions", func(r chi.Router) {
		r.Get("/breakdown/{year}", h.GetRegionalBreakdown)
		r.Get("/{region}/total/{year}", h.GetRegionalTotal)
	})

	r.Post("/cache/reload", h.ReloadCache)
}

// GetGlobal handles GET /api/global/{year}
func (h *ExpenditureHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindYear(w, r)
	if !ok {
		return
	}
	overview, err := h.service.GlobalOverview(r.Context(), req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, overview)
}

// GetMap handles GET /api/map/{year}
func (h *ExpenditureHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindYear(w, r)
	if !ok {
		return
	}
	entries, err := h.service.MapData(r.Context(), req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, entries)
}

// GetTop handles GET /api/top/{year}?n=
func (h *ExpenditureHandler) GetTop(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	n, err := queryInt(r.URL.Query(), "n", 10)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := topRequest{Year: year, N: n}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	top, err := h.service.TopCountries(r.Context(), req.Year, req.N)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, top)
}

// GetComparison handles GET /api/comparison?countries=a,b&startYear=&endYear=
func (h *ExpenditureHandler) GetComparison(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryInt(q, "startYear", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	end, err := queryInt(q, "endYear", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := comparisonRequest{Countries: queryList(q, "countries"), StartYear: start, EndYear: end}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "comparison requested",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.Int("countries", len(req.Countries)),
		slog.Int("start_year", req.StartYear),
		slog.Int("end_year", req.EndYear))

	series, err := h.service.Comparison(r.Context(), req.Countries, req.StartYear, req.EndYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, series)
}

// GetTrend handles GET /api/trend?startYear=&endYear=
func (h *ExpenditureHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryInt(q, "startYear", h.baseYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	end, err := queryInt(q, "endYear", h.endYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := trendRequest{StartYear: start, EndYear: end}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	trend, err := h.service.Trend(r.Context(), req.StartYear, req.EndYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, trend)
}

// GetCountries handles GET /api/countries
func (h *ExpenditureHandler) GetCountries(w http.ResponseWriter, r *http.Request) {
	countries, err := h.service.Countries(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, countries)
}

// GetYears handles GET /api/years
func (h *ExpenditureHandler) GetYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.service.Years(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, years)
}

// GetGrowth handles GET /api/growth?country=&startYear=&endYear=
func (h *ExpenditureHandler) GetGrowth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	start, err := queryInt(q, "startYear", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	end, err := queryInt(q, "endYear", 0)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := growthRequest{Country: strings.TrimSpace(q.Get("country")), StartYear: start, EndYear: end}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	growth, err := h.service.Growth(r.Context(), req.Country, req.StartYear, req.EndYear)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, growth)
}

// GetRegionalTotal handles GET /api/regions/{region}/total/{year}
func (h *ExpenditureHandler) GetRegionalTotal(w http.ResponseWriter, r *http.Request) {
	year, err := pathInt(r, "year")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	req := regionTotalRequest{Region: chi.URLParam(r, "region"), Year: year}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	total, err := h.service.RegionalTotal(r.Context(), req.Region, req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, total)
}

// GetRegionalBreakdown handles GET /api/regions/breakdown/{year}
func (h *ExpenditureHandler) GetRegionalBreakdown(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindYear(w, r)
	if !ok {
		return
	}
	shares, err := h.service.RegionalBreakdown(r.Context(), req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, shares)
}

// GetSummary handles GET /api/summary/{year}
func (h *ExpenditureHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.bindYear(w, r)
	if !ok {
		return
	}
	summary, err := h.service.YearSummary(r.Context(), req.Year)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, summary)
}

// ReloadCache handles POST /api/cache/reload
func (h *ExpenditureHandler) ReloadCache(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "cache reload requested", slog.String("request_id", reqID))

	result, err := h.service.Reload(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "cache reload failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, result)
}

func (h *ExpenditureHandler) bindYear(w http.ResponseWriter, r *http.Request) (yearRequest, bool) {
	year, err := pathInt(r, "year")
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return yearRequest{}, false
	}
	req := yearRequest{Year: year}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return yearRequest{}, false
	}
	return req, true
}

func pathInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, name)))
	if err != nil {
		return 0, apperrors.InvalidParameter(name, err)
	}
	return v, nil
}

// queryInt parses an optional integer parameter
func queryInt(q url.Values, name string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.InvalidParameter(name, err)
	}
	return v, nil
}

// queryList accepts both a comma separated value and repeated parameters.
// Blank entries are dropped.
func queryList(q url.Values, name string) []string {
	var out []string
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
