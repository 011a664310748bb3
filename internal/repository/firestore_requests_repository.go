package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/jonboulle/clockwork"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"CrisisConnect/internal/domain/model"
	"CrisisConnect/internal/domain/repository"
	fsclient "CrisisConnect/internal/infrastructure/firestore"
)

// requestsCounterDoc 採番用カウンタードキュメントのID
const requestsCounterDoc = "requests"

// FirestoreRequest Firestoreに保存するリクエストのドキュメント
type FirestoreRequest struct {
	ID        int64     `firestore:"id"`
	Name      string    `firestore:"name"`
	Contact   *string   `firestore:"contact"`
	Needs     string    `firestore:"needs"`
	Lat       float64   `firestore:"lat"`
	Lon       float64   `firestore:"lon"`
	Priority  string    `firestore:"priority"`
	CreatedAt time.Time `firestore:"created_at"`
}

// FirestoreRequestsRepository Firestoreを使用したリクエストリポジトリ
type FirestoreRequestsRepository struct {
	client *fsclient.FirestoreClient
	clock  clockwork.Clock
}

// NewFirestoreRequestsRepository 新しいFirestoreRequestsRepositoryインスタンスを作成
func NewFirestoreRequestsRepository(client *fsclient.FirestoreClient, clock clockwork.Clock) repository.RequestsRepository {
	return &FirestoreRequestsRepository{
		client: client,
		clock:  clock,
	}
}

// Create カウンタードキュメントと同じトランザクションでIDを採番して保存する
func (r *FirestoreRequestsRepository) Create(ctx context.Context, req *model.Request) error {
	if !req.Priority.Valid() {
		return fmt.Errorf("リクエストの作成に失敗: %w: 優先度 %s", repository.ErrConstraintViolation, req.Priority)
	}

	fs := r.client.GetClient()
	counterRef := fs.Collection(fsclient.CountersCollection).Doc(requestsCounterDoc)
	createdAt := r.clock.Now().UTC()

	var id int64
	err := fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		next := int64(1)

		snap, err := tx.Get(counterRef)
		switch {
		case status.Code(err) == codes.NotFound:
		case err != nil:
			return fmt.Errorf("カウンターの取得に失敗: %w", err)
		default:
			last, err := snap.DataAt("last_id")
			if err != nil {
				return fmt.Errorf("カウンター値の読み取りに失敗: %w", err)
			}
			n, ok := last.(int64)
			if !ok {
				return fmt.Errorf("カウンター値の型が不正です: %T", last)
			}
			next = n + 1
		}

		doc := FirestoreRequest{
			ID:        next,
			Name:      req.Name,
			Contact:   req.Contact,
			Needs:     req.Needs,
			Lat:       req.Lat,
			Lon:       req.Lon,
			Priority:  req.Priority.String(),
			CreatedAt: createdAt,
		}
		if err := tx.Set(counterRef, map[string]any{"last_id": next}); err != nil {
			return err
		}
		if err := tx.Create(fs.Collection(fsclient.RequestsCollection).Doc(strconv.FormatInt(next, 10)), doc); err != nil {
			return err
		}

		id = next
		return nil
	})
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	req.ID = id
	req.CreatedAt = createdAt
	return nil
}

// GetAll 全リクエストをID昇順で取得
func (r *FirestoreRequestsRepository) GetAll(ctx context.Context) ([]model.Request, error) {
	docs, err := r.client.GetClient().Collection(fsclient.RequestsCollection).
		OrderBy("id", firestore.Asc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("リクエスト一覧の取得に失敗: %w", err)
	}

	requests := make([]model.Request, 0, len(docs))
	for _, doc := range docs {
		var data FirestoreRequest
		if err := doc.DataTo(&data); err != nil {
			return nil, fmt.Errorf("データの変換に失敗しました: %w", err)
		}

		priority, err := model.ParsePriority(data.Priority)
		if err != nil {
			return nil, fmt.Errorf("ドキュメント %s の優先度が不正: %w", doc.Ref.ID, err)
		}

		requests = append(requests, model.Request{
			ID:        data.ID,
			Name:      data.Name,
			Contact:   data.Contact,
			Needs:     data.Needs,
			Lat:       data.Lat,
			Lon:       data.Lon,
			Priority:  priority,
			CreatedAt: data.CreatedAt,
		})
	}
	return requests, nil
}

func (r *FirestoreRequestsRepository) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}
