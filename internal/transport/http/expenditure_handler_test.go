package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"milexcli/internal/config"
	apperrors "milexcli/internal/errors"
	appmiddleware "milexcli/internal/middleware"
	"milexcli/internal/services"
	"milexcli/internal/shared/testutil"
	"milexcli/pkg/contracts/domain"
)

// MockExpenditureService is a mock implementation of ExpenditureServiceInterface
type MockExpenditureService struct {
	mock.Mock
}

func (m *MockExpenditureService) GlobalOverview(ctx context.Context, year int) (*services.GlobalOverview, error) {
	args := m.Called(year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GlobalOverview), args.Error(1)
}

func (m *MockExpenditureService) MapData(ctx context.Context, year int) ([]services.MapEntry, error) {
	args := m.Called(year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.MapEntry), args.Error(1)
}

func (m *MockExpenditureService) Comparison(ctx context.Context, countries []string, startYear, endYear int) ([]services.CountrySeries, error) {
	args := m.Called(countries, startYear, endYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.CountrySeries), args.Error(1)
}

func (m *MockExpenditureService) Trend(ctx context.Context, startYear, endYear int) ([]domain.TrendPoint, error) {
	args := m.Called(startYear, endYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *MockExpenditureService) Countries(ctx context.Context) ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockExpenditureService) Years(ctx context.Context) ([]int, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockExpenditureService) TopCountries(ctx context.Context, year, n int) ([]domain.CountryValue, error) {
	args := m.Called(year, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CountryValue), args.Error(1)
}

func (m *MockExpenditureService) Growth(ctx context.Context, country string, startYear, endYear int) (*services.GrowthResult, error) {
	args := m.Called(country, startYear, endYear)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GrowthResult), args.Error(1)
}

func (m *MockExpenditureService) RegionalTotal(ctx context.Context, region string, year int) (*services.RegionTotal, error) {
	args := m.Called(region, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RegionTotal), args.Error(1)
}

func (m *MockExpenditureService) RegionalBreakdown(ctx context.Context, year int) ([]domain.RegionShare, error) {
	args := m.Called(year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RegionShare), args.Error(1)
}

func (m *MockExpenditureService) YearSummary(ctx context.Context, year int) (*domain.YearSummary, error) {
	args := m.Called(year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.YearSummary), args.Error(1)
}

func (m *MockExpenditureService) Reload(ctx context.Context) (*services.ReloadResult, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ReloadResult), args.Error(1)
}

func newTestHandler(t *testing.T, svc *MockExpenditureService) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	h := NewExpenditureHandler(svc, appmiddleware.NewValidator(logger), logger, apperrors.NewErrorHandler(logger, false))
	return h.Routes()
}

func doRequest(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	return problem
}

func TestExpenditureHandler_GetGlobal(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockExpenditureService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "overview",
			target: "/global/1960",
			setupMock: func(m *MockExpenditureService) {
				m.On("GlobalOverview", 1960).Return(&services.GlobalOverview{
					Year:  1960,
					Total: 605,
					TopCountries: []domain.CountryValue{
						{Country: "Beta", Region: domain.RegionEuropean, Value: 300},
					},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"topCountries":[{"country":"Beta","region":"europen","expenditure":300}]`,
		},
		{
			name:           "non numeric year",
			target:         "/global/abc",
			setupMock:      func(m *MockExpenditureService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"INVALID_PARAMETER"`,
		},
		{
			name:   "unknown year",
			target: "/global/1800",
			setupMock: func(m *MockExpenditureService) {
				m.On("GlobalOverview", 1800).Return(nil, fmt.Errorf("%w: 1800", apperrors.ErrYearNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"Year Not Found"`,
		},
		{
			name:   "unreadable data",
			target: "/global/1960",
			setupMock: func(m *MockExpenditureService) {
				m.On("GlobalOverview", 1960).Return(nil, apperrors.NewStorageError("read merged file", errors.New("permission denied")))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"Data Unavailable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockExpenditureService)
			tt.setupMock(svc)

			rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, tt.target)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestExpenditureHandler_GetComparison(t *testing.T) {
	t.Run("splits and trims countries", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Comparison", []string{"Alpha", "Beta"}, 1960, 1962).Return([]services.CountrySeries{
			{
				Country: "Beta",
				Region:  "europen",
				Years: []services.YearValue{
					{Year: 1960, Expenditure: domain.Some(300)},
					{Year: 1961, Expenditure: domain.Missing()},
				},
			},
		}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet,
			"/comparison?countries=Alpha,%20Beta,&startYear=1960&endYear=1962")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `{"year":1961,"expenditure":null}`)
		svc.AssertExpectations(t)
	})

	t.Run("repeated parameters", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Comparison", []string{"Alpha", "Brazil"}, 1960, 1961).Return([]services.CountrySeries{}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet,
			"/comparison?countries=Alpha&countries=Brazil&startYear=1960&endYear=1961")

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("missing countries", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/comparison?startYear=1960&endYear=1962")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		problem := decodeProblem(t, rec)
		assert.Equal(t, "VALIDATION_FAILED", problem["error_code"])
		assert.Contains(t, rec.Body.String(), `"field":"countries"`)
		svc.AssertNotCalled(t, "Comparison", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("year bounds", func(t *testing.T) {
		targets := []string{
			"/comparison?countries=Alpha&startYear=1960&endYear=1099511627776",
			"/comparison?countries=Alpha&startYear=-5&endYear=1962",
			"/comparison?countries=Alpha&startYear=1962&endYear=1960",
		}
		for _, target := range targets {
			svc := new(MockExpenditureService)

			rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, target)

			assert.Equal(t, http.StatusBadRequest, rec.Code, target)
			assert.Equal(t, "VALIDATION_FAILED", decodeProblem(t, rec)["error_code"], target)
			svc.AssertNotCalled(t, "Comparison", mock.Anything, mock.Anything, mock.Anything)
		}
	})

	t.Run("no matching years", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Comparison", []string{"Alpha"}, 1900, 1901).
			Return(nil, fmt.Errorf("%w: 1900-1901", apperrors.ErrNoMatchingYears))

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet,
			"/comparison?countries=Alpha&startYear=1900&endYear=1901")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperrors.TypeNoMatchingYears, decodeProblem(t, rec)["type"])
	})
}

func TestExpenditureHandler_GetTrend(t *testing.T) {
	t.Run("defaults to configured range", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Trend", config.DefaultBaseYear, config.DefaultEndYear).Return([]domain.TrendPoint{
			{Year: 1960, Total: 605},
		}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/trend")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[{"year":1960,"expenditure":605}]`, rec.Body.String())
		svc.AssertExpectations(t)
	})

	t.Run("reversed range", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/trend?startYear=2000&endYear=1990")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"field":"endYear"`)
		svc.AssertNotCalled(t, "Trend", mock.Anything, mock.Anything)
	})

	t.Run("end year out of bounds", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/trend?startYear=1960&endYear=1099511627776")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "endYear must be less than or equal to 9999")
		svc.AssertNotCalled(t, "Trend", mock.Anything, mock.Anything)
	})
}

func TestExpenditureHandler_GetGrowth(t *testing.T) {
	tests := []struct {
		name           string
		target         string
		setupMock      func(*MockExpenditureService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "rate",
			target: "/growth?country=Alpha&startYear=1960&endYear=1962",
			setupMock: func(m *MockExpenditureService) {
				m.On("Growth", "Alpha", 1960, 1962).Return(&services.GrowthResult{
					Country: "Alpha", StartYear: 1960, EndYear: 1962, Rate: 41.42,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"rate":41.42`,
		},
		{
			name:           "missing country",
			target:         "/growth?startYear=1960&endYear=1962",
			setupMock:      func(m *MockExpenditureService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"country is required"`,
		},
		{
			name:           "bad year",
			target:         "/growth?country=Alpha&startYear=x&endYear=1962",
			setupMock:      func(m *MockExpenditureService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"invalid value for startYear"`,
		},
		{
			name:   "unknown country",
			target: "/growth?country=Atlantis&startYear=1960&endYear=1962",
			setupMock: func(m *MockExpenditureService) {
				m.On("Growth", "Atlantis", 1960, 1962).Return(nil, fmt.Errorf("%w: Atlantis", apperrors.ErrCountryNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"Country Not Found"`,
		},
		{
			name:   "missing endpoint value",
			target: "/growth?country=Beta&startYear=1960&endYear=1961",
			setupMock: func(m *MockExpenditureService) {
				m.On("Growth", "Beta", 1960, 1961).Return(nil, fmt.Errorf("%w: Beta 1961", apperrors.ErrMissingData))
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"Missing Data"`,
		},
		{
			name:   "undefined growth",
			target: "/growth?country=Zero&startYear=1960&endYear=1962",
			setupMock: func(m *MockExpenditureService) {
				m.On("Growth", "Zero", 1960, 1962).Return(nil, apperrors.ErrUndefinedGrowth)
			},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"Growth Rate Undefined"`,
		},
		{
			name:   "invalid range",
			target: "/growth?country=Alpha&startYear=1962&endYear=1960",
			setupMock: func(m *MockExpenditureService) {
				m.On("Growth", "Alpha", 1962, 1960).Return(nil, apperrors.ErrInvalidRange)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"Invalid Year Range"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockExpenditureService)
			tt.setupMock(svc)

			rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, tt.target)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestExpenditureHandler_Regions(t *testing.T) {
	t.Run("total", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("RegionalTotal", "europen", 1960).Return(&services.RegionTotal{
			Region: "europen", Label: "Europe", Year: 1960, Total: 340,
		}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/regions/europen/total/1960")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"region":"europen","label":"Europe","year":1960,"total":340}`, rec.Body.String())
	})

	t.Run("corrected region spelling is rejected", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/regions/european/total/1960")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "region must be a known region key")
		svc.AssertNotCalled(t, "RegionalTotal", mock.Anything, mock.Anything)
	})

	t.Run("breakdown", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("RegionalBreakdown", 1960).Return([]domain.RegionShare{
			{Region: domain.RegionAfrican, Label: "Africa", Total: 15, Percent: 2.48},
		}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/regions/breakdown/1960")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"label":"Africa"`)
		svc.AssertExpectations(t)
	})
}

func TestExpenditureHandler_GetTop(t *testing.T) {
	t.Run("default size", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("TopCountries", 1960, 10).Return([]domain.CountryValue{}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/top/1960")

		assert.Equal(t, http.StatusOK, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("size above limit", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/top/1960?n=500")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "n must be less than or equal to 200")
	})
}

func TestExpenditureHandler_Listings(t *testing.T) {
	svc := new(MockExpenditureService)
	svc.On("Countries").Return([]string{"Alpha", "Beta"}, nil)
	svc.On("Years").Return([]int{1960, 1961, 1962}, nil)
	svc.On("MapData", 1960).Return([]services.MapEntry{
		{Country: "France", Expenditure: 40, Year: 1960, Continent: "europen", ISOCode: "FRA"},
	}, nil)
	svc.On("YearSummary", 1960).Return(&domain.YearSummary{Year: 1960, Total: 605, CountryCount: 8}, nil)

	h := newTestHandler(t, svc)

	rec := doRequest(t, h, http.MethodGet, "/countries")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `["Alpha","Beta"]`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/years")
	assert.JSONEq(t, `[1960,1961,1962]`, rec.Body.String())

	rec = doRequest(t, h, http.MethodGet, "/map/1960")
	assert.Contains(t, rec.Body.String(), `"iso_code":"FRA"`)

	rec = doRequest(t, h, http.MethodGet, "/summary/1960")
	assert.Contains(t, rec.Body.String(), `"country_count":8`)
	assert.NotContains(t, rec.Body.String(), "change_percent")

	svc.AssertExpectations(t)
}

func TestExpenditureHandler_ReloadCache(t *testing.T) {
	t.Run("reloaded", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Reload").Return(&services.ReloadResult{Countries: 8, Years: 3}, nil)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodPost, "/cache/reload")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"countries":8,"years":3}`, rec.Body.String())
	})

	t.Run("unreadable spreadsheets", func(t *testing.T) {
		svc := new(MockExpenditureService)
		svc.On("Reload").Return(nil, apperrors.NewParsingError("open african.xlsx", errors.New("zip: not a valid zip file")))

		rec := doRequest(t, newTestHandler(t, svc), http.MethodPost, "/cache/reload")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "PARSING", decodeProblem(t, rec)["error_type"])
	})

	t.Run("wrong method", func(t *testing.T) {
		svc := new(MockExpenditureService)

		rec := doRequest(t, newTestHandler(t, svc), http.MethodGet, "/cache/reload")

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
