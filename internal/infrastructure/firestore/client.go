package firestore

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// コレクション名
const (
	RequestsCollection = "requests"
	CountersCollection = "counters"
)

type FirestoreClient struct {
	client *firestore.Client
}

// NewFirestoreClient 実行環境に応じた認証方法でFirestoreクライアントを作成
func NewFirestoreClient(ctx context.Context, projectID string) (*FirestoreClient, error) {
	var opts []option.ClientOption

	switch {
	case os.Getenv("FIRESTORE_EMULATOR_HOST") != "":
		// エミュレータ接続時はクライアントライブラリが認証を省略する
		log.Info().Str("emulator", os.Getenv("FIRESTORE_EMULATOR_HOST")).Msg("Firestoreエミュレータを使用")
	case os.Getenv("K_SERVICE") != "":
		// Cloud Run環境ではデフォルト認証を使用
		log.Info().Msg("Cloud Run環境: デフォルト認証を使用")
	default:
		credentialsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		if credentialsFile != "" {
			if _, err := os.Stat(credentialsFile); err == nil {
				log.Info().Str("credentials", credentialsFile).Msg("認証情報ファイルを使用")
				opts = append(opts, option.WithCredentialsFile(credentialsFile))
			} else {
				log.Warn().Str("credentials", credentialsFile).Msg("認証情報ファイルが見つからないためデフォルト認証を使用")
			}
		}
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("Firestoreクライアントの作成に失敗: %w", err)
	}
	log.Info().Str("project", projectID).Msg("Firestoreクライアントを初期化しました")

	return &FirestoreClient{client: client}, nil
}

func (fc *FirestoreClient) Close() error {
	return fc.client.Close()
}

func (fc *FirestoreClient) GetClient() *firestore.Client {
	return fc.client
}

// HealthCheck カウンタードキュメントを読み出してFirestoreへの疎通を確認する
func (fc *FirestoreClient) HealthCheck(ctx context.Context) error {
	iter := fc.client.Collection(CountersCollection).Limit(1).Documents(ctx)
	defer iter.Stop()

	if _, err := iter.GetAll(); err != nil {
		return fmt.Errorf("Firestoreへの接続確認に失敗: %w", err)
	}
	return nil
}
