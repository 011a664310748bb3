package helper

import (
	"github.com/paulmach/orb"

	"CrisisConnect/internal/domain/model"
)

// RequestPoint 要請の座標を orb.Point に変換する（orb の慣例に従い [lon, lat]）
func RequestPoint(request *model.Request) orb.Point {
	return orb.Point{request.Lon, request.Lat}
}

// RequestPoints 要請リストの座標を入力順の MultiPoint に変換する
func RequestPoints(requests []model.Request) orb.MultiPoint {
	points := make(orb.MultiPoint, len(requests))
	for i := range requests {
		points[i] = RequestPoint(&requests[i])
	}
	return points
}

// PaddedBound 全点を含む境界ボックスを padding 分だけ広げて返す
func PaddedBound(points orb.MultiPoint, padding float64) orb.Bound {
	return points.Bound().Pad(padding)
}

// SquareAround 点を中心とした一辺 2*radius の正方形
func SquareAround(point orb.Point, radius float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{point.Lon() - radius, point.Lat() - radius},
		Max: orb.Point{point.Lon() + radius, point.Lat() + radius},
	}
}

// MeanLatLon 緯度・経度それぞれの算術平均を返す
func MeanLatLon(points []orb.Point) (lat, lon float64) {
	if len(points) == 0 {
		return 0, 0
	}
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat()
		sumLon += p.Lon()
	}
	n := float64(len(points))
	return sumLat / n, sumLon / n
}

// FindHighestPriority 要請リストの中で最も高い優先度を見つける
func FindHighestPriority(requests []*model.Request) model.Priority {
	highest := model.PriorityLow
	for _, r := range requests {
		highest = highest.Max(r.Priority)
	}
	return highest
}
