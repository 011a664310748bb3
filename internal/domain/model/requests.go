package model

import (
	"time"
)

// Request 被災者からの支援要請
type Request struct {
	ID        int64     `json:"id" db:"id"`                 // ストアが採番するID
	Name      string    `json:"name" db:"name"`             // 要請者の表示名
	Contact   *string   `json:"contact" db:"contact"`       // 連絡先（NULLABLE）
	Needs     string    `json:"needs" db:"needs"`           // 必要な支援の自由記述
	Lat       float64   `json:"lat" db:"lat"`               // 緯度
	Lon       float64   `json:"lon" db:"lon"`               // 経度
	Priority  Priority  `json:"priority" db:"priority"`     // 作成時に needs から決定
	CreatedAt time.Time `json:"created_at" db:"created_at"` // 登録日時
}

// CreateRequestInput POST /api/requests のリクエストボディ
type CreateRequestInput struct {
	Name    string   `json:"name" binding:"required"`
	Contact *string  `json:"contact"`
	Needs   *string  `json:"needs" binding:"required"`
	Lat     *float64 `json:"lat" binding:"required"`
	Lon     *float64 `json:"lon" binding:"required"`
}

// Cluster 近接する支援要請のまとまり。保存はされず毎回再計算される
//
// ClusterID は1回の計算の中でのみ一意で、呼び出し間での安定性はない
type Cluster struct {
	ClusterID   int      `json:"cluster_id"`
	CentroidLat float64  `json:"centroid_lat"`
	CentroidLon float64  `json:"centroid_lon"`
	RequestIDs  []int64  `json:"request_ids"`
	Priority    Priority `json:"priority"`
}
