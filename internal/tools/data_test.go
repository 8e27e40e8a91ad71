package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/motomarket/motorag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockListingSource struct {
	mock.Mock
}

func (m *MockListingSource) SearchListings(ctx context.Context, filter domain.ListingFilter) ([]domain.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

func (m *MockListingSource) GetListingsByIDs(ctx context.Context, ids []string) ([]domain.Listing, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Listing), args.Error(1)
}

type MockCOESource struct {
	mock.Mock
}

func (m *MockCOESource) LatestCOEPrices(ctx context.Context) ([]domain.COEResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.COEResult), args.Error(1)
}

func (m *MockCOESource) COEStatistics(ctx context.Context) ([]domain.COEStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.COEStatistics), args.Error(1)
}

func TestSearchListingsTool_Execute(t *testing.T) {
	src := new(MockListingSource)
	tool := NewSearchListingsTool(src)

	src.On("SearchListings", mock.Anything, domain.ListingFilter{
		Brand:        "honda",
		MaxPrice:     8000,
		LicenseClass: "2B",
		Status:       domain.ListingStatusActive,
		Limit:        5,
	}).Return([]domain.Listing{
		{ID: "l-1", Title: "CB400X", Brand: "Honda", Model: "CB400X", Year: 2021, Price: 7800, EngineCC: 399, LicenseClass: "2A"},
	}, nil)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"brand":" honda ","maxPrice":8000,"licenseClass":"2b"}`))
	require.NoError(t, err)

	search, ok := res.(ListingSearchResult)
	require.True(t, ok)
	assert.Equal(t, 1, search.Count)
	assert.Equal(t, "l-1", search.Listings[0].ID)
	assert.Contains(t, res.Format(), "CB400X (Honda CB400X, 2021): $7,800.00, 399cc, class 2A [id l-1]")
	src.AssertExpectations(t)
}

func TestSearchListingsTool_LimitClamped(t *testing.T) {
	src := new(MockListingSource)
	tool := NewSearchListingsTool(src)

	src.On("SearchListings", mock.Anything, mock.MatchedBy(func(f domain.ListingFilter) bool {
		return f.Limit == maxSearchLimit
	})).Return([]domain.Listing{}, nil)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"limit":500}`))
	require.NoError(t, err)
	assert.Equal(t, "No active listings match the search.", res.Format())
}

func TestSearchListingsTool_NoSource(t *testing.T) {
	_, err := NewSearchListingsTool(nil).Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrDataSourceUnavailable)
}

func TestCompareBikesTool_EmptyIDs(t *testing.T) {
	src := new(MockListingSource)
	tool := NewCompareBikesTool(src)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"listingIds":[]}`))

	require.NoError(t, err)
	assert.Equal(t, ErrorResult{Message: domain.ErrEmptyListingIDs.Message}, res)
	src.AssertNotCalled(t, "GetListingsByIDs", mock.Anything, mock.Anything)
}

func TestCompareBikesTool_Execute(t *testing.T) {
	src := new(MockListingSource)
	tool := NewCompareBikesTool(src)

	src.On("GetListingsByIDs", mock.Anything, []string{"a", "b"}).Return([]domain.Listing{
		{ID: "a", Title: "MT-07", Brand: "Yamaha", Model: "MT-07", Price: 14500},
		{ID: "b", Title: "Z650", Brand: "Kawasaki", Model: "Z650", Price: 13900},
	}, nil)

	res, err := tool.Execute(context.Background(), json.RawMessage(`{"listingIds":["a","b"]}`))
	require.NoError(t, err)

	cmp := res.(ComparisonResult)
	require.Len(t, cmp.Listings, 2)
	assert.Contains(t, res.Format(), "Comparing 2 listings")
}

func TestCOEPriceTool_Execute(t *testing.T) {
	src := new(MockCOESource)
	tool := NewCOEPriceTool(src)
	date := time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC)

	src.On("LatestCOEPrices", mock.Anything).Return([]domain.COEResult{
		{BiddingDate: date, Category: "D", Premium: 9511, Quota: 540, BidsReceived: 712},
	}, nil).Once()

	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "Latest COE results:\n- Category D (2024-05-22): premium $9,511.00, quota 540, bids 712", res.Format())

	src.On("LatestCOEPrices", mock.Anything).Return([]domain.COEResult{}, nil).Once()
	_, err = tool.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoCOEData)
}

func TestCOEStatisticsTool_Execute(t *testing.T) {
	src := new(MockCOESource)
	tool := NewCOEStatisticsTool(src)

	src.On("COEStatistics", mock.Anything).Return([]domain.COEStatistics{
		{Category: "D", Exercises: 24, Average: 9000, Minimum: 7000, Maximum: 11000, Latest: 9500, ChangePercent: -2.5,
			LatestDate: time.Date(2024, 5, 22, 0, 0, 0, 0, time.UTC)},
	}, nil).Once()

	res, err := tool.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, res.Format(), "Category D over 24 exercises")
	assert.Contains(t, res.Format(), "(-2.5% vs previous)")

	dbErr := errors.New("connection refused")
	src.On("COEStatistics", mock.Anything).Return(nil, dbErr).Once()
	_, err = tool.Execute(context.Background(), nil)
	assert.ErrorIs(t, err, dbErr)
}
