package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/supabase-community/postgrest-go"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	"CrisisConnect/internal/infrastructure/database"
)

const requestsTable = "requests"

// requestInsert PostgREST に送る挿入用の行。id と created_at はDB側で採番する
type requestInsert struct {
	Name     string         `json:"name"`
	Contact  *string        `json:"contact"`
	Needs    string         `json:"needs"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Priority model.Priority `json:"priority"`
}

type SupabaseRequestsRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseRequestsRepository(client *database.SupabaseClient) repository.RequestsRepository {
	return &SupabaseRequestsRepository{
		client: client,
	}
}

func (r *SupabaseRequestsRepository) Create(ctx context.Context, req *model.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	row := requestInsert{
		Name:     req.Name,
		Contact:  req.Contact,
		Needs:    req.Needs,
		Lat:      req.Lat,
		Lon:      req.Lon,
		Priority: req.Priority,
	}

	data, _, err := r.client.GetClient().From(requestsTable).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return wrapPostgrestError("リクエストの作成に失敗", err)
	}

	var created []model.Request
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("作成結果のJSONアンマーシャル失敗: %w", err)
	}
	if len(created) == 0 {
		return fmt.Errorf("リクエストの作成結果が空です")
	}

	req.ID = created[0].ID
	req.CreatedAt = created[0].CreatedAt
	return nil
}

func (r *SupabaseRequestsRepository) GetAll(ctx context.Context) ([]model.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, count, err := r.client.GetClient().From(requestsTable).
		Select("*", "exact", false).
		Order("id", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗: %w", err)
	}

	requests := make([]model.Request, 0, count)
	if err := json.Unmarshal(data, &requests); err != nil {
		return nil, fmt.Errorf("リクエスト一覧のJSONアンマーシャル失敗: %w", err)
	}
	return requests, nil
}

func (r *SupabaseRequestsRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

// wrapPostgrestError PostgREST が返す制約違反メッセージを ErrConstraintViolation として返す
func wrapPostgrestError(msg string, err error) error {
	text := err.Error()
	if strings.Contains(text, "violates") && strings.Contains(text, "constraint") {
		return fmt.Errorf("%s: %w: %s", msg, repository.ErrConstraintViolation, text)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
