package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestNewArtifactNameUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		name := NewArtifactName(".gif")
		if !strings.HasPrefix(name, "gif_") || !strings.HasSuffix(name, ".gif") {
			t.Fatalf("Unexpected name %q", name)
		}
		if seen[name] {
			t.Fatalf("Duplicate name %q", name)
		}
		seen[name] = true
	}
}

func TestLocalStorePut(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "output")
	store, err := NewLocalStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	path, err := store.Put(context.Background(), "gif_a.gif", []byte("GIF89a"), "image/gif")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if path != filepath.Join(dir, "gif_a.gif") {
		t.Errorf("Unexpected path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "GIF89a" {
		t.Errorf("Unexpected content %q (%v)", data, err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("Expected only the artifact, found %d entries", len(entries))
	}
}

func TestLocalStoreCanceled(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Put(ctx, "x.gif", []byte("x"), ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestWriteFileAtomicLeavesNoTempOnFailure(t *testing.T) {
	dir := t.TempDir()
	// Renaming a file over a non-empty directory fails.
	target := filepath.Join(dir, "busy")
	if err := os.MkdirAll(filepath.Join(target, "child"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("data"), 0644); err == nil {
		t.Fatal("Expected rename error")
	}
	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("Temp file left behind: %s", e.Name())
		}
	}
}

type fakeS3 struct {
	bucket, key, contentType string
	body                     []byte
	err                      error
	expires                  time.Duration
}

func (f *fakeS3) PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(in.Bucket) + ".s3.amazonaws.com/" + aws.ToString(in.Key) + "?X-Amz-Signature=abc",
		Method: http.MethodGet,
	}, nil
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.bucket = aws.ToString(in.Bucket)
	f.key = aws.ToString(in.Key)
	f.contentType = aws.ToString(in.ContentType)
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3StorePut(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, fake, "gifs", "/styles/")

	loc, err := store.Put(context.Background(), "gif_a.gif", []byte("GIF89a"), "image/gif")
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if loc != "s3://gifs/styles/gif_a.gif" {
		t.Errorf("Unexpected location %q", loc)
	}
	if fake.bucket != "gifs" || fake.key != "styles/gif_a.gif" || fake.contentType != "image/gif" {
		t.Errorf("Unexpected request: %+v", fake)
	}
	if string(fake.body) != "GIF89a" {
		t.Errorf("Unexpected body %q", fake.body)
	}
}

func TestS3StorePutError(t *testing.T) {
	failing := &fakeS3{err: errors.New("denied")}
	store := newS3Store(failing, failing, "gifs", "")
	if _, err := store.Put(context.Background(), "a.gif", nil, ""); err == nil {
		t.Fatal("Expected error")
	}
}

func TestS3StoreURL(t *testing.T) {
	fake := &fakeS3{}
	store := newS3Store(fake, fake, "gifs", "styles")

	loc, err := store.Put(context.Background(), "gif_a.gif", []byte("GIF89a"), "image/gif")
	if err != nil {
		t.Fatal(err)
	}
	u, err := store.URL(context.Background(), loc)
	if err != nil {
		t.Fatalf("URL failed: %v", err)
	}
	if !strings.HasPrefix(u, "https://gifs.s3.amazonaws.com/styles/gif_a.gif?") {
		t.Errorf("Unexpected URL %q", u)
	}
	if fake.expires != DefaultURLExpiry {
		t.Errorf("Expected expiry %v, got %v", DefaultURLExpiry, fake.expires)
	}

	for _, foreign := range []string{"s3://other/gif_a.gif", "static/output/gif_a.gif", "s3://gifs/"} {
		if _, err := store.URL(context.Background(), foreign); !errors.Is(err, ErrForeignLocation) {
			t.Errorf("URL(%q): expected ErrForeignLocation, got %v", foreign, err)
		}
	}
}
