package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milexcli/internal/dataprocessing"
	apperrors "milexcli/internal/errors"
	"milexcli/internal/shared/testutil"
	"milexcli/pkg/contracts/domain"
)

func newSampleService(t *testing.T) (*ExpenditureService, string) {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteSampleRegions(t, dir)
	logger, _ := testutil.NewTestLogger(t)
	repo := dataprocessing.NewRepository(dataprocessing.RepositoryConfig{
		DataDir:  dir,
		BaseYear: 1960,
		EndYear:  1962,
	}, logger, nil)
	return NewExpenditureService(repo, logger), dir
}

func TestExpenditureService_GlobalOverview(t *testing.T) {
	svc, _ := newSampleService(t)

	overview, err := svc.GlobalOverview(context.Background(), 1960)
	require.NoError(t, err)
	assert.Equal(t, 1960, overview.Year)
	assert.Equal(t, 605.0, overview.Total)
	require.Len(t, overview.TopCountries, TopCountriesLimit)
	assert.Equal(t, "Beta", overview.TopCountries[0].Country)

	_, err = svc.GlobalOverview(context.Background(), 2000)
	assert.ErrorIs(t, err, apperrors.ErrYearNotFound)
}

func TestExpenditureService_MapData(t *testing.T) {
	svc, _ := newSampleService(t)

	entries, err := svc.MapData(context.Background(), 1962)
	require.NoError(t, err)
	require.Len(t, entries, 6)

	byCountry := make(map[string]MapEntry)
	for _, e := range entries {
		byCountry[e.Country] = e
	}
	assert.Equal(t, MapEntry{Country: "India", Expenditure: 100, Year: 1962, Continent: "aisan", ISOCode: "IND"}, byCountry["India"])
	assert.Equal(t, "", byCountry["Alpha"].ISOCode)
	assert.NotContains(t, byCountry, "France")

	_, err = svc.MapData(context.Background(), 1959)
	assert.ErrorIs(t, err, apperrors.ErrYearNotFound)
}

func TestExpenditureService_Comparison(t *testing.T) {
	svc, _ := newSampleService(t)

	series, err := svc.Comparison(context.Background(), []string{"France", "Kenya", "Nowhere"}, 1961, 1970)
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "Kenya", series[0].Country)
	assert.Equal(t, "France", series[1].Country)

	data, err := json.Marshal(series[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"country":"Kenya","region":"african","years":[{"year":1961,"expenditure":null},{"year":1962,"expenditure":7}]}`, string(data))

	_, err = svc.Comparison(context.Background(), []string{"Kenya"}, 1990, 1995)
	assert.ErrorIs(t, err, apperrors.ErrNoMatchingYears)
}

func TestExpenditureService_Growth(t *testing.T) {
	svc, _ := newSampleService(t)

	res, err := svc.Growth(context.Background(), "India", 1960, 1961)
	require.NoError(t, err)
	assert.Equal(t, "India", res.Country)
	assert.InDelta(t, 12.5, res.Rate, 1e-9)

	_, err = svc.Growth(context.Background(), "Kenya", 1960, 1961)
	assert.ErrorIs(t, err, apperrors.ErrMissingData)
}

func TestExpenditureService_Regional(t *testing.T) {
	svc, _ := newSampleService(t)
	ctx := context.Background()

	total, err := svc.RegionalTotal(ctx, "europen", 1960)
	require.NoError(t, err)
	assert.Equal(t, &RegionTotal{Region: "europen", Label: "Europe", Year: 1960, Total: 340}, total)

	_, err = svc.RegionalTotal(ctx, "europe", 1960)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRegion)

	shares, err := svc.RegionalBreakdown(ctx, 1962)
	require.NoError(t, err)
	assert.Len(t, shares, len(domain.AllRegions()))
}

func TestExpenditureService_ListsAndSummary(t *testing.T) {
	svc, _ := newSampleService(t)
	ctx := context.Background()

	countries, err := svc.Countries(ctx)
	require.NoError(t, err)
	assert.Len(t, countries, 8)

	years, err := svc.Years(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{1960, 1961, 1962}, years)

	trend, err := svc.Trend(ctx, 1960, 1961)
	require.NoError(t, err)
	assert.Len(t, trend, 2)

	summary, err := svc.YearSummary(ctx, 1962)
	require.NoError(t, err)
	assert.Equal(t, 697.0, summary.Total)

	top, err := svc.TopCountries(ctx, 1962, 2)
	require.NoError(t, err)
	assert.Equal(t, "Beta", top[0].Country)
	assert.Equal(t, "Alpha", top[1].Country)
}

func TestExpenditureService_Reload(t *testing.T) {
	svc, dir := newSampleService(t)
	ctx := context.Background()

	_, err := svc.Countries(ctx)
	require.NoError(t, err)

	testutil.WriteWorkbook(t, dir+"/easternasian.xlsx", [][]any{{"Japan", 1.0}, {"Korea", 2.0}})

	res, err := svc.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, &ReloadResult{Countries: 9, Years: 3}, res)
}
