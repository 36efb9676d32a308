package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Vitalii2594/zip-password-app/config"
	"github.com/Vitalii2594/zip-password-app/internal/common"
)

type fakeObject struct {
	data    []byte
	modTime time.Time
}

// fakeS3 is an in-memory bucket covering the calls the store makes.
type fakeS3 struct {
	mu            sync.Mutex
	objects       map[string]fakeObject
	now           time.Time
	deleteBatches int
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string]fakeObject), now: time.Now()}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = fakeObject{data: data, modTime: f.now}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) UploadPart(context.Context, *s3.UploadPartInput, ...func(*s3.Options)) (*s3.UploadPartOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CreateMultipartUpload(context.Context, *s3.CreateMultipartUploadInput, ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) CompleteMultipartUpload(context.Context, *s3.CompleteMultipartUploadInput, ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error) {
	return nil, errors.New("multipart not supported by fake")
}

func (f *fakeS3) AbortMultipartUpload(context.Context, *s3.AbortMultipartUploadInput, ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error) {
	return &s3.AbortMultipartUploadOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		obj := f.objects[k]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modTime),
		})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(string(obj.data))),
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(obj.modTime),
	}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(in.Delete.Objects) > deleteBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit", len(in.Delete.Objects))
	}
	f.deleteBatches++
	for _, id := range in.Delete.Objects {
		delete(f.objects, aws.ToString(id.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"archives", "archives/"},
		{"archives/", "archives/"},
		{"/nested/archives", "nested/archives/"},
	}

	for _, tt := range tests {
		if got := normalizePrefix(tt.in); got != tt.want {
			t.Errorf("normalizePrefix(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPutTakeDiscard(t *testing.T) {
	fake := newFakeS3()
	client := NewWithAPI(fake, "bucket", "archives", nil)
	ctx := context.Background()
	locator := "req-0_report_protected.zip"

	if err := client.Put(ctx, locator, []byte("zipdata")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if _, ok := fake.objects["archives/"+locator]; !ok {
		t.Fatalf("object not stored under prefix, have %v", fake.objects)
	}

	obj, err := client.Take(ctx, locator)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	body, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(body) != "zipdata" {
		t.Errorf("body = %q", body)
	}
	if obj.Name != "report_protected.zip" {
		t.Errorf("Name = %q, want report_protected.zip", obj.Name)
	}
	if obj.Size != 7 {
		t.Errorf("Size = %d, want 7", obj.Size)
	}

	if err := obj.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}
	if _, err := client.Take(ctx, locator); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("second Take() error = %v, want ErrNotFound", err)
	}
}

func TestTakeRejectsInvalidLocators(t *testing.T) {
	client := NewWithAPI(newFakeS3(), "bucket", "", nil)

	for _, locator := range []string{"", "../secret.zip", "a/b.zip", ".hidden"} {
		if _, err := client.Take(context.Background(), locator); !errors.Is(err, common.ErrNotFound) {
			t.Errorf("Take(%q) error = %v, want ErrNotFound", locator, err)
		}
	}
}

func TestListAndPurge(t *testing.T) {
	fake := newFakeS3()
	client := NewWithAPI(fake, "bucket", "archives/", nil)
	ctx := context.Background()

	fake.now = time.Now().Add(-48 * time.Hour)
	for i := 0; i < deleteBatchSize+1; i++ {
		if err := client.Put(ctx, fmt.Sprintf("old-%d_a_protected.zip", i), []byte("x")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	fake.now = time.Now()
	if err := client.Put(ctx, "new-0_b_protected.zip", []byte("yy")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	all, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != deleteBatchSize+2 {
		t.Fatalf("List() returned %d archives", len(all))
	}
	for _, a := range all {
		if strings.HasPrefix(a.Locator, "archives/") {
			t.Errorf("locator %q still carries the prefix", a.Locator)
		}
	}

	cutoff := time.Now().Add(-24 * time.Hour)

	planned, err := client.Purge(ctx, cutoff, true)
	if err != nil {
		t.Fatalf("Purge(dry run) error = %v", err)
	}
	if len(planned) != deleteBatchSize+1 || fake.deleteBatches != 0 {
		t.Errorf("dry run planned %d, batches %d", len(planned), fake.deleteBatches)
	}

	purged, err := client.Purge(ctx, cutoff, false)
	if err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
	if len(purged) != deleteBatchSize+1 {
		t.Errorf("purged %d, want %d", len(purged), deleteBatchSize+1)
	}
	if fake.deleteBatches != 2 {
		t.Errorf("delete batches = %d, want 2", fake.deleteBatches)
	}

	left, err := client.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(left) != 1 || left[0].Locator != "new-0_b_protected.zip" {
		t.Errorf("left after purge = %+v", left)
	}
}

func TestLocation(t *testing.T) {
	client := NewWithAPI(newFakeS3(), "bucket", "archives", nil)
	if got := client.Location(); got != "s3://bucket/archives/" {
		t.Errorf("Location() = %q", got)
	}
	if client.Backend() != "s3" {
		t.Errorf("Backend() = %q", client.Backend())
	}
}

// Integration tests against a real bucket are skipped by default.
// To run them, set the environment variable S3_INTEGRATION_TEST=true

func integrationConfig(t *testing.T) *config.Config {
	t.Helper()
	if os.Getenv("S3_INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test; set S3_INTEGRATION_TEST=true to run")
	}
	return &config.Config{
		BucketName: os.Getenv("TEST_BUCKET_NAME"),
		Region:     os.Getenv("TEST_REGION"),
		ApiURL:     os.Getenv("TEST_API_URL"),
		AccessKey:  os.Getenv("TEST_ACCESS_KEY"),
		SecretKey:  os.Getenv("TEST_SECRET_KEY"),
		S3Prefix:   "zip-password-app-test/",
	}
}

func TestIntegrationRoundTrip(t *testing.T) {
	cfg := integrationConfig(t)

	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	locator := "it-" + time.Now().Format("20060102-150405") + "-0_test_protected.zip"
	content := []byte("test content for S3 upload")

	if err := client.Put(ctx, locator, content); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	obj, err := client.Take(ctx, locator)
	if err != nil {
		t.Fatalf("Take() error = %v", err)
	}
	body, _ := io.ReadAll(obj.Body)
	obj.Body.Close()
	if string(body) != string(content) {
		t.Errorf("body = %q, want %q", body, content)
	}
	if err := obj.Discard(); err != nil {
		t.Fatalf("Discard() error = %v", err)
	}

	if _, err := client.Take(ctx, locator); !errors.Is(err, common.ErrNotFound) {
		t.Errorf("Take() after discard error = %v, want ErrNotFound", err)
	}
}

func TestIntegrationPurgeDryRun(t *testing.T) {
	cfg := integrationConfig(t)

	client, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if _, err := client.Purge(context.Background(), time.Now().Add(-30*24*time.Hour), true); err != nil {
		t.Fatalf("Purge() error = %v", err)
	}
}
