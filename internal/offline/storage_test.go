package offline

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ziadkadry99/itinerary/internal/db"
)

// fakeS3 is an in-memory stand-in for the S3 API.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut func(key string) bool
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: map[string][]byte{}} }

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(bytes.Clone(data)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.failPut != nil && f.failPut(key) {
		return nil, errors.New("injected put failure")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[key] = data
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	seen := map[string]bool{}
	var keys []string
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := strings.TrimPrefix(k, prefix)
		if delim != "" {
			if i := strings.Index(rest, delim); i >= 0 {
				cp := prefix + rest[:i+len(delim)]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func (f *fakeS3) DeleteObjects(_ context.Context, in *s3.DeleteObjectsInput, _ ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, obj := range in.Delete.Objects {
		delete(f.objects, aws.ToString(obj.Key))
	}
	return &s3.DeleteObjectsOutput{}, nil
}

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": NewSQLStorage(database),
		"s3":     NewS3Storage(newFakeS3(), "trip-cache", "offline"),
	}
}

func entry(url, body string) *Entry {
	return &Entry{
		URL:      url,
		Status:   http.StatusOK,
		Header:   http.Header{"Content-Type": {"application/json"}},
		Body:     []byte(body),
		StoredAt: time.Unix(1700000000, 0).UTC(),
	}
}

func TestStorageBackends(t *testing.T) {
	for name, storage := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			has, err := storage.Has(ctx, "itinerary-v1")
			require.NoError(t, err)
			assert.False(t, has)

			b, err := storage.Open(ctx, "itinerary-v1")
			require.NoError(t, err)
			assert.Equal(t, "itinerary-v1", b.Name())

			has, err = storage.Has(ctx, "itinerary-v1")
			require.NoError(t, err)
			assert.True(t, has)

			_, err = b.Match(ctx, "http://x/data.json")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, b.PutAll(ctx, []*Entry{
				entry("http://x/data.json", `{"days":[]}`),
				entry("http://x/index.html", "<html>"),
			}))
			keys, err := b.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"http://x/data.json", "http://x/index.html"}, keys)

			got, err := b.Match(ctx, "http://x/data.json")
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, got.Status)
			assert.Equal(t, `{"days":[]}`, string(got.Body))
			assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
			assert.True(t, got.StoredAt.Equal(time.Unix(1700000000, 0)))

			// Put overwrites a single entry.
			require.NoError(t, b.Put(ctx, entry("http://x/data.json", `{"days":[{}]}`)))
			got, err = b.Match(ctx, "http://x/data.json")
			require.NoError(t, err)
			assert.Equal(t, `{"days":[{}]}`, string(got.Body))

			// Reopening reuses the same contents.
			again, err := storage.Open(ctx, "itinerary-v1")
			require.NoError(t, err)
			keys, err = again.Keys(ctx)
			require.NoError(t, err)
			assert.Len(t, keys, 2)

			_, err = storage.Open(ctx, "itinerary-v2")
			require.NoError(t, err)
			names, err := storage.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"itinerary-v1", "itinerary-v2"}, names)

			ok, err := storage.Delete(ctx, "itinerary-v1")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = storage.Delete(ctx, "itinerary-v1")
			require.NoError(t, err)
			assert.False(t, ok, "second delete finds nothing")

			names, err = storage.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"itinerary-v2"}, names)
		})
	}
}

func TestMemoryMatchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	b, _ := NewMemoryStorage().Open(ctx, "c")
	require.NoError(t, b.Put(ctx, entry("http://x/a", "abc")))

	got, err := b.Match(ctx, "http://x/a")
	require.NoError(t, err)
	got.Body[0] = 'z'

	again, err := b.Match(ctx, "http://x/a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again.Body))
}

func TestS3PutAllFailureLeavesIndexUntouched(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	storage := NewS3Storage(fake, "trip-cache", "offline")
	b, err := storage.Open(ctx, "itinerary-v1")
	require.NoError(t, err)

	var puts int
	fake.failPut = func(key string) bool {
		if strings.HasSuffix(key, "index.json") {
			return false
		}
		puts++
		return puts == 2
	}

	err = b.PutAll(ctx, []*Entry{entry("http://x/a", "a"), entry("http://x/b", "b")})
	require.Error(t, err)

	keys, err := b.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestS3LayoutUsesPrefix(t *testing.T) {
	ctx := context.Background()
	fake := newFakeS3()
	storage := NewS3Storage(fake, "trip-cache", "/offline/")
	b, err := storage.Open(ctx, "itinerary-v5")
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, entry("http://x/a", "a")))

	fake.mu.Lock()
	defer fake.mu.Unlock()
	_, ok := fake.objects["offline/itinerary-v5/index.json"]
	assert.True(t, ok)
	for k := range fake.objects {
		assert.True(t, strings.HasPrefix(k, "offline/itinerary-v5/"), k)
	}
}

func TestSQLMatchMissingHeaderIsEmpty(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()
	ctx := context.Background()

	b, err := NewSQLStorage(database).Open(ctx, "c")
	require.NoError(t, err)
	require.NoError(t, b.Put(ctx, &Entry{URL: "http://x/empty", Status: http.StatusNoContent}))

	got, err := b.Match(ctx, "http://x/empty")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, got.Status)
	assert.Empty(t, got.Body)
	assert.NotNil(t, got.Header)
}

func TestStorageNamesAreLexical(t *testing.T) {
	for name, storage := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, bucket := range []string{"itinerary-v9", "itinerary-v10", "itinerary-a"} {
				b, err := storage.Open(ctx, bucket)
				require.NoError(t, err)
				require.NoError(t, b.Put(ctx, entry("http://x/data.json", "{}")))
			}
			names, err := storage.Names(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"itinerary-a", "itinerary-v10", "itinerary-v9"}, names)
		})
	}
}
