package sink

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"strings"

	"github.com/agentic-research/libcat/api"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3 uploads <prefix>/<target>.json to a bucket. A single PutObject is
// atomic, so no temp object is needed.
type S3 struct {
	client *minio.Client
	bucket string
	prefix string
}

// ParseS3URL returns the parsed URL when output is an s3+http:// or
// s3+https:// location, nil otherwise.
func ParseS3URL(output string) *url.URL {
	if !strings.HasPrefix(output, "s3+http://") && !strings.HasPrefix(output, "s3+https://") {
		return nil
	}
	u, err := url.Parse(output)
	if err != nil {
		return nil
	}
	return u
}

// NewS3 connects to the endpoint named by u (s3+https://host/bucket/prefix)
// with the AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY credentials.
func NewS3(u *url.URL) (*S3, error) {
	accessKeyID := os.Getenv("AWS_ACCESS_KEY_ID")
	if accessKeyID == "" {
		return nil, fmt.Errorf("AWS_ACCESS_KEY_ID not set")
	}
	secretAccessKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	if secretAccessKey == "" {
		return nil, fmt.Errorf("AWS_SECRET_ACCESS_KEY not set")
	}

	bucket, prefix := splitBucket(u.Path)
	if bucket == "" {
		return nil, fmt.Errorf("s3 output %s has no bucket", u.Redacted())
	}

	mc, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: u.Scheme == "s3+https",
		Region: os.Getenv("AWS_REGION"),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client for %s: %w", u.Host, err)
	}
	return &S3{client: mc, bucket: bucket, prefix: prefix}, nil
}

func (s *S3) String() string {
	return "s3:" + path.Join(s.bucket, s.prefix)
}

// Stage implements Sink. The encoded catalog is held in memory; the
// upload happens on Commit as a single PutObject.
func (s *S3) Stage(_ context.Context, target string, libs []api.Library) (Staged, error) {
	data, err := api.Encode(libs)
	if err != nil {
		return nil, err
	}
	return &s3Staged{s: s, key: path.Join(s.prefix, FileName(target)), data: data}, nil
}

type s3Staged struct {
	s    *S3
	key  string
	data []byte
}

func (st *s3Staged) Commit(ctx context.Context) error {
	_, err := st.s.client.PutObject(ctx, st.s.bucket, st.key, bytes.NewReader(st.data), int64(len(st.data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", st.s.bucket, st.key, err)
	}
	return nil
}

func (st *s3Staged) Discard() {}

// splitBucket splits "/bucket/some/prefix" into bucket and prefix.
func splitBucket(p string) (string, string) {
	p = strings.Trim(p, "/")
	bucket, prefix, _ := strings.Cut(p, "/")
	return bucket, prefix
}
