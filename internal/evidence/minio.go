package evidence

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig はMinIO（S3互換）接続の設定。
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioStore はMinIOのバケットに保存するStore。
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore はMinIOクライアントを生成する。接続は最初の保存時まで行わない。
func NewMinioStore(cfg MinioConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("minio endpoint and bucket are required")
	}

	cli, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioStore{client: cli, bucket: cfg.Bucket}, nil
}

func (s *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if !exists {
		return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

// Save はオブジェクトをバケットにアップロードする。
// Pathは <bucket>/<name> の形式で返す。
func (s *MinioStore) Save(ctx context.Context, name string, r io.Reader) (StoredFile, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return StoredFile{}, fmt.Errorf("バケットの確認に失敗: %w", err)
	}

	name = baseName(name)
	info, err := s.client.PutObject(ctx, s.bucket, name, r, objectSize(r), minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return StoredFile{}, fmt.Errorf("証拠ファイルのアップロードに失敗: %w", err)
	}

	return StoredFile{Name: name, Path: s.bucket + "/" + name, Size: info.Size}, nil
}

// objectSize はrの残りバイト数を返す。分からない場合は-1（マルチパートで送る）。
func objectSize(r io.Reader) int64 {
	switch v := r.(type) {
	case interface{ Len() int }:
		return int64(v.Len())
	case io.Seeker:
		cur, err := v.Seek(0, io.SeekCurrent)
		if err != nil {
			return -1
		}
		end, err := v.Seek(0, io.SeekEnd)
		if err != nil {
			return -1
		}
		if _, err := v.Seek(cur, io.SeekStart); err != nil {
			return -1
		}
		return end - cur
	}
	return -1
}
