package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/quillnotes/notesync/internal/common"
)

// S3Config configures the S3-backed stores. Endpoint is only needed for
// S3-compatible services (MinIO etc.); prefer environment credentials over
// static keys.
type S3Config struct {
	Bucket       string
	Region       string
	Endpoint     string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

// S3Store implements RemoteBlobStore and RemoteAttachmentStore on one bucket.
//
// Layout:
//
//	owners/{ownerID}/snapshot.json
//	owners/{ownerID}/snapshot.meta.json
//	owners/{ownerID}/attachments/{attachmentID}
type S3Store struct {
	client *s3.Client
	bucket string
}

// NewS3Store builds an S3Store from cfg.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.UsePathStyle
		})
	}

	return &S3Store{
		client: s3.NewFromConfig(awsCfg, s3Opts...),
		bucket: cfg.Bucket,
	}, nil
}

func snapshotKey(ownerID string) string { return path.Join("owners", ownerID, "snapshot.json") }
func sidecarKey(ownerID string) string  { return path.Join("owners", ownerID, "snapshot.meta.json") }
func attachmentKey(ownerID, id string) string {
	return path.Join("owners", ownerID, "attachments", id)
}

func (s *S3Store) Authenticate(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrorAuthFailed, err)
	}
	return nil
}

// isNotFound detects the S3 "no such key" family of errors.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

func (s *S3Store) getObject(ctx context.Context, key string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("S3 get %s failed: %w", key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("S3 read %s failed: %w", key, err)
	}
	return data, nil
}

func (s *S3Store) putObject(ctx context.Context, key string, data []byte, meta map[string]string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:   aws.String(s.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(data),
		Metadata: meta,
	})
	if err != nil {
		return fmt.Errorf("S3 put %s failed: %w", key, err)
	}
	return nil
}

func (s *S3Store) Metadata(ctx context.Context, ownerID string) (*RemoteMetadata, error) {
	data, err := s.getObject(ctx, sidecarKey(ownerID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var meta RemoteMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot sidecar: %w", err)
	}
	return &meta, nil
}

func (s *S3Store) DownloadSnapshot(ctx context.Context, ownerID string) ([]byte, error) {
	return s.getObject(ctx, snapshotKey(ownerID))
}

func (s *S3Store) UploadSnapshot(ctx context.Context, ownerID string, data []byte, meta RemoteMetadata) error {
	if err := s.putObject(ctx, snapshotKey(ownerID), data, nil); err != nil {
		return err
	}

	sidecar, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot sidecar: %w", err)
	}
	return s.putObject(ctx, sidecarKey(ownerID), sidecar, nil)
}

func (s *S3Store) UploadAttachment(ctx context.Context, ownerID string, data []byte, info AttachmentInfo) (string, error) {
	key := attachmentKey(ownerID, info.ID)
	meta := map[string]string{
		"attachment-id": info.ID,
		"note-id":       info.NoteID,
		"file-name":     info.FileName,
		"mime-type":     info.MimeType,
		"content-hash":  info.ContentHash,
	}
	if err := s.putObject(ctx, key, data, meta); err != nil {
		return "", err
	}
	return key, nil
}

func (s *S3Store) DownloadAttachment(ctx context.Context, remoteID string) ([]byte, error) {
	data, err := s.getObject(ctx, remoteID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("attachment %s: %w", remoteID, common.ErrorNotFound)
	}
	return data, nil
}

func (s *S3Store) ListAttachments(ctx context.Context, ownerID string) ([]AttachmentInfo, error) {
	prefix := path.Join("owners", ownerID, "attachments") + "/"

	var infos []AttachmentInfo
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("S3 list %s failed: %w", prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return nil, fmt.Errorf("S3 head %s failed: %w", key, err)
			}

			size := int64(0)
			if head.ContentLength != nil {
				size = *head.ContentLength
			}
			infos = append(infos, AttachmentInfo{
				ID:          head.Metadata["attachment-id"],
				RemoteID:    key,
				NoteID:      head.Metadata["note-id"],
				FileName:    head.Metadata["file-name"],
				MimeType:    head.Metadata["mime-type"],
				Size:        size,
				ContentHash: head.Metadata["content-hash"],
			})
		}
	}

	return infos, nil
}

func (s *S3Store) DeleteAttachment(ctx context.Context, remoteID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return fmt.Errorf("S3 delete %s failed: %w", remoteID, err)
	}
	return nil
}
