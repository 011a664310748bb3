package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CrisisConnect/internal/domain/model"
)

func newRequest(id int64, lat, lon float64, priority model.Priority) model.Request {
	return model.Request{
		ID:       id,
		Name:     "requester",
		Needs:    "help",
		Lat:      lat,
		Lon:      lon,
		Priority: priority,
	}
}

func defaultEngine() *ClusterEngine {
	return NewClusterEngine(DefaultClusterEps, DefaultClusterMinSamples)
}

func TestGetClusters_FewerThanTwoRequests(t *testing.T) {
	engine := defaultEngine()

	clusters := engine.GetClusters(nil)
	require.NotNil(t, clusters)
	assert.Empty(t, clusters)

	clusters = engine.GetClusters([]model.Request{newRequest(1, 28.61, 77.20, model.PriorityHigh)})
	require.NotNil(t, clusters)
	assert.Empty(t, clusters)

	// min_samples=1 でも1件なら空
	clusters = NewClusterEngine(DefaultClusterEps, 1).GetClusters([]model.Request{newRequest(1, 0, 0, model.PriorityLow)})
	assert.Empty(t, clusters)
}

func TestGetClusters_IdenticalCoordinates(t *testing.T) {
	requests := []model.Request{
		newRequest(10, 28.6139, 77.2090, model.PriorityLow),
		newRequest(11, 28.6139, 77.2090, model.PriorityMedium),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, 28.6139, clusters[0].CentroidLat)
	assert.Equal(t, 77.2090, clusters[0].CentroidLon)
	assert.Equal(t, []int64{10, 11}, clusters[0].RequestIDs)
	assert.Equal(t, model.PriorityMedium, clusters[0].Priority)
}

func TestGetClusters_FarApartIsNoise(t *testing.T) {
	requests := []model.Request{
		newRequest(1, 28.6139, 77.2090, model.PriorityHigh),
		newRequest(2, 28.5355, 77.3910, model.PriorityHigh),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestGetClusters_PriorityAggregation(t *testing.T) {
	requests := []model.Request{
		newRequest(1, 10.0, 20.0, model.PriorityLow),
		newRequest(2, 10.001, 20.001, model.PriorityHigh),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, model.PriorityHigh, clusters[0].Priority)
}

func TestGetClusters_AllLowStaysLow(t *testing.T) {
	requests := []model.Request{
		newRequest(1, 10.0, 20.0, model.PriorityLow),
		newRequest(2, 10.0, 20.005, model.PriorityLow),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, model.PriorityLow, clusters[0].Priority)
}

func TestGetClusters_DensityReachabilityChains(t *testing.T) {
	// 両端は eps より離れているが、中央の点を経由して連結される
	requests := []model.Request{
		newRequest(1, 0.000, 0, model.PriorityLow),
		newRequest(2, 0.008, 0, model.PriorityLow),
		newRequest(3, 0.016, 0, model.PriorityLow),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3}, clusters[0].RequestIDs)
	assert.InDelta(t, 0.008, clusters[0].CentroidLat, 1e-12)
	assert.InDelta(t, 0.0, clusters[0].CentroidLon, 1e-12)
}

func TestGetClusters_SeparateClustersAndNoise(t *testing.T) {
	requests := []model.Request{
		newRequest(1, 28.6139, 77.2090, model.PriorityMedium),
		newRequest(2, 40.0000, -74.0000, model.PriorityLow),
		newRequest(3, 28.6140, 77.2091, model.PriorityLow),
		newRequest(4, 40.0005, -74.0005, model.PriorityHigh),
		newRequest(5, 0.0, 0.0, model.PriorityHigh), // ノイズ
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 2)
	assert.NotEqual(t, clusters[0].ClusterID, clusters[1].ClusterID)

	assert.Equal(t, []int64{1, 3}, clusters[0].RequestIDs)
	assert.Equal(t, model.PriorityMedium, clusters[0].Priority)
	assert.InDelta(t, 28.61395, clusters[0].CentroidLat, 1e-9)
	assert.InDelta(t, 77.20905, clusters[0].CentroidLon, 1e-9)

	assert.Equal(t, []int64{2, 4}, clusters[1].RequestIDs)
	assert.Equal(t, model.PriorityHigh, clusters[1].Priority)

	for _, c := range clusters {
		assert.NotContains(t, c.RequestIDs, int64(5))
	}
}

func TestGetClusters_BorderPointJoinsCluster(t *testing.T) {
	engine := NewClusterEngine(DefaultClusterEps, 3)

	// 1〜3 は互いに近くコア点。4 はコア点 3 の近傍だが自身はコア点ではない
	requests := []model.Request{
		newRequest(1, 0.000, 0, model.PriorityLow),
		newRequest(2, 0.001, 0, model.PriorityLow),
		newRequest(3, 0.002, 0, model.PriorityLow),
		newRequest(4, 0.0115, 0, model.PriorityHigh),
	}

	clusters := engine.GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2, 3, 4}, clusters[0].RequestIDs)
	assert.Equal(t, model.PriorityHigh, clusters[0].Priority)
}

func TestGetClusters_MinSamplesNotReached(t *testing.T) {
	engine := NewClusterEngine(DefaultClusterEps, 3)

	requests := []model.Request{
		newRequest(1, 0.000, 0, model.PriorityLow),
		newRequest(2, 0.001, 0, model.PriorityLow),
	}

	assert.Empty(t, engine.GetClusters(requests))
}

func TestGetClusters_NeighborOnBoundary(t *testing.T) {
	engine := NewClusterEngine(0.5, 2)

	requests := []model.Request{
		newRequest(1, 0, 0, model.PriorityLow),
		newRequest(2, 0.5, 0, model.PriorityLow),
	}

	clusters := engine.GetClusters(requests)
	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 2}, clusters[0].RequestIDs)
}

func TestGetClusters_LabelsFollowInputOrder(t *testing.T) {
	requests := []model.Request{
		newRequest(7, 50, 50, model.PriorityLow),
		newRequest(8, 10, 10, model.PriorityLow),
		newRequest(9, 50, 50, model.PriorityLow),
		newRequest(6, 10, 10, model.PriorityLow),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 2)
	assert.Equal(t, 0, clusters[0].ClusterID)
	assert.Equal(t, []int64{7, 9}, clusters[0].RequestIDs)
	assert.Equal(t, 1, clusters[1].ClusterID)
	assert.Equal(t, []int64{8, 6}, clusters[1].RequestIDs)
}

func TestGetClusters_NonFiniteCoordinatesAreNoise(t *testing.T) {
	requests := []model.Request{
		newRequest(1, 28.6139, 77.2090, model.PriorityLow),
		newRequest(2, math.NaN(), 77.2090, model.PriorityHigh),
		newRequest(3, 28.6139, 77.2090, model.PriorityMedium),
		newRequest(4, 28.6139, math.Inf(1), model.PriorityHigh),
	}

	clusters := defaultEngine().GetClusters(requests)

	require.Len(t, clusters, 1)
	assert.Equal(t, []int64{1, 3}, clusters[0].RequestIDs)
	assert.Equal(t, model.PriorityMedium, clusters[0].Priority)
	assert.Equal(t, 28.6139, clusters[0].CentroidLat)
}

func TestGetClusters_OnlyNonFiniteCoordinates(t *testing.T) {
	requests := []model.Request{
		newRequest(1, math.NaN(), math.NaN(), model.PriorityLow),
		newRequest(2, math.Inf(-1), 0, model.PriorityLow),
	}

	clusters := NewClusterEngine(DefaultClusterEps, 1).GetClusters(requests)
	require.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestNewClusterEngine_InvalidEpsFallsBack(t *testing.T) {
	for _, eps := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -0.5} {
		engine := NewClusterEngine(eps, DefaultClusterMinSamples)
		assert.Equal(t, DefaultClusterEps, engine.Eps())
	}
	assert.Equal(t, 0.05, NewClusterEngine(0.05, 3).Eps())
}
