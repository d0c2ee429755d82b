package offline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Storage keeps each cache bucket under <prefix>/<name>/ in an S3 bucket.
//
// Entry bodies live in immutable objects under entries/; the bucket's
// index.json maps request URLs to those objects. Writes upload objects first
// and replace the index last, so a failed PutAll never exposes a partial set.
type S3Storage struct {
	client S3API
	bucket string
	prefix string

	mu sync.Mutex // serializes index read-modify-write within this process
}

// NewS3Storage creates an S3Storage in the given S3 bucket under prefix.
func NewS3Storage(client S3API, bucket, prefix string) *S3Storage {
	return &S3Storage{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

type s3Index struct {
	Name    string            `json:"name"`
	Entries map[string]string `json:"entries"` // url -> object key
}

func (s *S3Storage) root(name string) string {
	if s.prefix == "" {
		return name + "/"
	}
	return s.prefix + "/" + name + "/"
}

func (s *S3Storage) indexKey(name string) string { return s.root(name) + "index.json" }

func (s *S3Storage) Open(ctx context.Context, name string) (Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readIndex(ctx, name); err == nil {
		return &s3Bucket{s: s, name: name}, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err := s.writeIndex(ctx, &s3Index{Name: name, Entries: map[string]string{}}); err != nil {
		return nil, err
	}
	return &s3Bucket{s: s, name: name}, nil
}

func (s *S3Storage) Has(ctx context.Context, name string) (bool, error) {
	_, err := s.readIndex(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Names lists buckets in lexical order; S3 keeps no creation order.
func (s *S3Storage) Names(ctx context.Context) ([]string, error) {
	listPrefix := ""
	if s.prefix != "" {
		listPrefix = s.prefix + "/"
	}
	var names []string
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(s.bucket),
		Prefix:    aws.String(listPrefix),
		Delimiter: aws.String("/"),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing s3 buckets under %q: %w", listPrefix, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), listPrefix), "/")
			if name != "" {
				names = append(names, name)
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *S3Storage) Delete(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []types.ObjectIdentifier
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.root(name)),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return false, fmt.Errorf("listing objects of %s: %w", name, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
	}
	if len(keys) == 0 {
		return false, nil
	}

	// DeleteObjects accepts at most 1000 keys per call.
	for start := 0; start < len(keys); start += 1000 {
		end := min(start+1000, len(keys))
		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: keys[start:end], Quiet: aws.Bool(true)},
		})
		if err != nil {
			return false, fmt.Errorf("deleting objects of %s: %w", name, err)
		}
	}
	return true, nil
}

func (s *S3Storage) readIndex(ctx context.Context, name string) (*s3Index, error) {
	data, err := s.get(ctx, s.indexKey(name))
	if err != nil {
		return nil, err
	}
	var idx s3Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decoding index of %s: %w", name, err)
	}
	if idx.Entries == nil {
		idx.Entries = map[string]string{}
	}
	return &idx, nil
}

func (s *S3Storage) writeIndex(ctx context.Context, idx *s3Index) error {
	data, err := json.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encoding index of %s: %w", idx.Name, err)
	}
	return s.put(ctx, s.indexKey(idx.Name), data)
}

func (s *S3Storage) get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

func (s *S3Storage) put(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

type s3Bucket struct {
	s    *S3Storage
	name string
}

func (b *s3Bucket) Name() string { return b.name }

func (b *s3Bucket) Match(ctx context.Context, key string) (*Entry, error) {
	idx, err := b.s.readIndex(ctx, b.name)
	if err != nil {
		return nil, err
	}
	objKey, ok := idx.Entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	data, err := b.s.get(ctx, objKey)
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("decoding entry %s: %w", key, err)
	}
	return &e, nil
}

func (b *s3Bucket) Put(ctx context.Context, e *Entry) error {
	return b.PutAll(ctx, []*Entry{e})
}

func (b *s3Bucket) PutAll(ctx context.Context, entries []*Entry) error {
	uploaded := make(map[string]string, len(entries))
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encoding entry %s: %w", e.URL, err)
		}
		objKey := b.objectKey(e.URL)
		if err := b.s.put(ctx, objKey, data); err != nil {
			return err
		}
		uploaded[e.URL] = objKey
	}

	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	idx, err := b.s.readIndex(ctx, b.name)
	if errors.Is(err, ErrNotFound) {
		idx = &s3Index{Name: b.name, Entries: map[string]string{}}
	} else if err != nil {
		return err
	}
	for u, k := range uploaded {
		idx.Entries[u] = k
	}
	return b.s.writeIndex(ctx, idx)
}

func (b *s3Bucket) Keys(ctx context.Context) ([]string, error) {
	idx, err := b.s.readIndex(ctx, b.name)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(idx.Entries))
	for k := range idx.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// objectKey names a fresh object for url; the uuid keeps earlier versions
// readable until the index moves past them.
func (b *s3Bucket) objectKey(url string) string {
	sum := sha256.Sum256([]byte(url))
	return path.Join(b.s.root(b.name), "entries", hex.EncodeToString(sum[:8])+"-"+uuid.NewString()+".json")
}
