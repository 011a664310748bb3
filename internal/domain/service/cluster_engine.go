package service

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/quadtree"

	"CrisisConnect/internal/domain/helper"
	"CrisisConnect/internal/domain/model"
)

const (
	// DefaultClusterEps 近傍とみなす距離（緯度経度の度単位）
	DefaultClusterEps = 0.01
	// DefaultClusterMinSamples コア点とみなす近傍点数（自身を含む）
	DefaultClusterMinSamples = 2

	noise = -1
)

// ClusterEngine 支援要請を DBSCAN で空間クラスタリングする
//
// 座標は (lat, lon) をそのまま平面上の点として扱い、大円距離の補正は行わない
type ClusterEngine struct {
	eps        float64
	minSamples int
}

// NewClusterEngine 新しいClusterEngineインスタンスを作成
func NewClusterEngine(eps float64, minSamples int) *ClusterEngine {
	if minSamples < 1 {
		minSamples = 1
	}
	if math.IsNaN(eps) || math.IsInf(eps, 0) || eps <= 0 {
		eps = DefaultClusterEps
	}
	return &ClusterEngine{
		eps:        eps,
		minSamples: minSamples,
	}
}

// Eps 近傍半径を返す
func (e *ClusterEngine) Eps() float64 {
	return e.eps
}

// MinSamples コア点の最小近傍点数を返す
func (e *ClusterEngine) MinSamples() int {
	return e.minSamples
}

// GetClusters 要請リストをクラスタに分割する。ノイズ点はどのクラスタにも含まれない
func (e *ClusterEngine) GetClusters(requests []model.Request) []model.Cluster {
	clusters := make([]model.Cluster, 0)
	if len(requests) < 2 {
		return clusters
	}

	points := helper.RequestPoints(requests)
	labels, count := e.label(points)

	members := make([][]int, count)
	for i, label := range labels {
		if label == noise {
			continue
		}
		members[label] = append(members[label], i)
	}

	for label, indexes := range members {
		memberPoints := make([]orb.Point, len(indexes))
		memberRequests := make([]*model.Request, len(indexes))
		requestIDs := make([]int64, len(indexes))
		for j, idx := range indexes {
			memberPoints[j] = points[idx]
			memberRequests[j] = &requests[idx]
			requestIDs[j] = requests[idx].ID
		}

		lat, lon := helper.MeanLatLon(memberPoints)
		clusters = append(clusters, model.Cluster{
			ClusterID:   label,
			CentroidLat: lat,
			CentroidLon: lon,
			RequestIDs:  requestIDs,
			Priority:    helper.FindHighestPriority(memberRequests),
		})
	}

	return clusters
}

// label 各点にクラスタ番号（ノイズは -1）を付け、クラスタ数と共に返す
//
// 入力順に走査し、未ラベルのコア点を見つけるたびに新しい番号で密度到達可能な点を取り込む。
// 境界点は最初に到達したクラスタに属する
func (e *ClusterEngine) label(points orb.MultiPoint) ([]int, int) {
	index := newNeighborIndex(points, e.eps)

	neighborhoods := make([][]int, len(points))
	core := make([]bool, len(points))
	for i := range points {
		// 索引に入らなかった点は近傍を持たず、ノイズになる
		if !index.indexed[i] {
			continue
		}
		neighborhoods[i] = index.neighbors(i)
		core[i] = len(neighborhoods[i]) >= e.minSamples
	}

	labels := make([]int, len(points))
	for i := range labels {
		labels[i] = noise
	}

	next := 0
	var stack []int
	for i := range points {
		if labels[i] != noise || !core[i] {
			continue
		}

		stack = append(stack[:0], i)
		for len(stack) > 0 {
			v := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if labels[v] != noise {
				continue
			}
			labels[v] = next
			if !core[v] {
				continue
			}
			for j := len(neighborhoods[v]) - 1; j >= 0; j-- {
				if nb := neighborhoods[v][j]; labels[nb] == noise {
					stack = append(stack, nb)
				}
			}
		}
		next++
	}

	return labels, next
}

// indexedPoint quadtree に入力順のインデックスを持たせるためのラッパー
type indexedPoint struct {
	point orb.Point
	index int
}

func (p indexedPoint) Point() orb.Point {
	return p.point
}

// neighborIndex eps 近傍検索用の quadtree
type neighborIndex struct {
	tree    *quadtree.Quadtree
	points  orb.MultiPoint
	indexed []bool
	eps     float64
}

// newNeighborIndex 座標が有限の点だけを索引に登録する。
// NaN や Inf を含む点は境界ボックスを壊すため除外し、indexed で区別する
func newNeighborIndex(points orb.MultiPoint, eps float64) *neighborIndex {
	finite := make(orb.MultiPoint, 0, len(points))
	for _, p := range points {
		if isFinitePoint(p) {
			finite = append(finite, p)
		}
	}

	n := &neighborIndex{
		points:  points,
		indexed: make([]bool, len(points)),
		eps:     eps,
	}
	if len(finite) == 0 {
		return n
	}

	n.tree = quadtree.New(helper.PaddedBound(finite, eps))
	for i, p := range points {
		if !isFinitePoint(p) {
			continue
		}
		if err := n.tree.Add(indexedPoint{point: p, index: i}); err != nil {
			continue
		}
		n.indexed[i] = true
	}
	return n
}

func isFinitePoint(p orb.Point) bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// neighbors 点 i から eps 以内にある点（自身を含む）のインデックスを昇順で返す
func (n *neighborIndex) neighbors(i int) []int {
	center := n.points[i]
	found := n.tree.InBoundMatching(nil, helper.SquareAround(center, n.eps), func(p orb.Pointer) bool {
		return planar.Distance(center, p.Point()) <= n.eps
	})

	result := make([]int, 0, len(found))
	for _, p := range found {
		result = append(result, p.(indexedPoint).index)
	}
	sort.Ints(result)
	return result
}
