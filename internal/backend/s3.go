package backend

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/linusboehm/rats3/internal/logging"
)

// s3API is the slice of the S3 client the backend uses. Every operation
// on it is read-only; writes are structurally impossible through this
// backend.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Remote lists and fetches objects from one S3 bucket, presenting key
// prefixes up to the "/" delimiter as directories.
type Remote struct {
	client   s3API
	bucket   string
	maxPages int
	log      logging.Logger
}

const defaultMaxListPages = 20

// ParseS3URI splits "s3://bucket/prefix" into bucket and prefix.
func ParseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("URI %q must start with s3://", uri)
	}
	bucket, prefix, _ = strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("URI %q has no bucket", uri)
	}
	return bucket, strings.Trim(prefix, "/"), nil
}

// NewRemote builds a Remote against the default AWS credential chain.
func NewRemote(ctx context.Context, bucket string, maxPages int, log logging.Logger) (*Remote, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newRemote(s3.NewFromConfig(awsCfg), bucket, maxPages, log), nil
}

func newRemote(client s3API, bucket string, maxPages int, log logging.Logger) *Remote {
	if maxPages <= 0 {
		maxPages = defaultMaxListPages
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Remote{client: client, bucket: bucket, maxPages: maxPages, log: log}
}

func (r *Remote) List(ctx context.Context, prefix string) (ListResult, error) {
	prefix = strings.Trim(prefix, "/")
	keyPrefix := prefix
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	var entries []Entry
	seenDirs := map[string]struct{}{}
	var token *string
	pages := 0
	for {
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(keyPrefix),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return ListResult{}, fmt.Errorf("list s3://%s/%s: %w", r.bucket, keyPrefix, err)
		}
		pages++

		for _, cp := range out.CommonPrefixes {
			full := aws.ToString(cp.Prefix)
			name := strings.TrimSuffix(strings.TrimPrefix(full, keyPrefix), "/")
			if name == "" {
				continue
			}
			if _, ok := seenDirs[name]; ok {
				continue
			}
			seenDirs[name] = struct{}{}
			entries = append(entries, Entry{
				Name: name,
				Dir:  true,
				Size: -1,
				Path: joinKey(prefix, name),
			})
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if key == keyPrefix {
				continue
			}
			name := strings.TrimPrefix(key, keyPrefix)
			// Zero-byte keys ending in the delimiter are directory
			// markers, not files.
			if strings.HasSuffix(name, "/") {
				continue
			}
			entry := Entry{
				Name: name,
				Size: aws.ToInt64(obj.Size),
				Path: joinKey(prefix, name),
			}
			if obj.LastModified != nil {
				entry.Modified = *obj.LastModified
			}
			entries = append(entries, entry)
		}

		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		if pages >= r.maxPages {
			r.log.Warn("listing truncated at page cap",
				logging.F("prefix", keyPrefix), logging.F("pages", pages))
			break
		}
		token = out.NextContinuationToken
	}

	sortEntries(entries)
	r.log.Debug("listed prefix",
		logging.F("prefix", keyPrefix), logging.F("pages", pages), logging.F("entries", len(entries)))
	return ListResult{Entries: entries, Prefix: prefix}, nil
}

func (r *Remote) FetchPreview(ctx context.Context, path string, maxBytes int64) (PreviewContent, error) {
	key := strings.Trim(path, "/")
	head, err := r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return PreviewContent{Kind: PreviewError, Message: fmt.Sprintf("cannot access object: %v", err)}, nil
	}
	size := aws.ToInt64(head.ContentLength)
	if size > maxBytes {
		return PreviewContent{Kind: PreviewTooLarge, Size: size}, nil
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return PreviewContent{}, fmt.Errorf("get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return PreviewContent{}, fmt.Errorf("read s3://%s/%s: %w", r.bucket, key, err)
	}
	if isText(data) {
		return PreviewContent{Kind: PreviewText, Text: string(data), Size: size}, nil
	}
	return PreviewContent{Kind: PreviewBinary, MIME: aws.ToString(head.ContentType), Size: size}, nil
}

func (r *Remote) DownloadFile(ctx context.Context, path, destination string) error {
	key := strings.Trim(path, "/")
	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("get s3://%s/%s: %w", r.bucket, key, err)
	}
	defer out.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}
	dest, err := os.Create(destination)
	if err != nil {
		return fmt.Errorf("create %q: %w", destination, err)
	}
	if _, err := io.Copy(dest, out.Body); err != nil {
		dest.Close()
		return fmt.Errorf("write %q: %w", destination, err)
	}
	return dest.Close()
}

func (r *Remote) DownloadTree(ctx context.Context, prefix, destDir string) (TreeStats, error) {
	prefix = strings.Trim(prefix, "/")
	keys, err := r.listAllKeys(ctx, prefix)
	if err != nil {
		return TreeStats{}, err
	}

	keyPrefix := prefix
	if keyPrefix != "" {
		keyPrefix += "/"
	}
	// One file at a time: a failure costs only that file, and resource
	// usage stays flat no matter how large the tree is.
	var stats TreeStats
	for _, key := range keys {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		rel := strings.TrimPrefix(key, keyPrefix)
		dest := filepath.Join(destDir, filepath.FromSlash(rel))
		if err := r.DownloadFile(ctx, key, dest); err != nil {
			stats.Failed++
			r.log.Warn("download failed", logging.F("key", key), logging.F("err", err))
			continue
		}
		stats.Written++
	}
	return stats, nil
}

// listAllKeys walks the full recursive listing under prefix, without the
// delimiter, skipping directory markers. The interactive page cap does
// not apply here: a download needs every key, so pagination runs until
// the listing is exhausted.
func (r *Remote) listAllKeys(ctx context.Context, prefix string) ([]string, error) {
	keyPrefix := prefix
	if keyPrefix != "" {
		keyPrefix += "/"
	}
	var keys []string
	var token *string
	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		out, err := r.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(r.bucket),
			Prefix:            aws.String(keyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", r.bucket, keyPrefix, err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			keys = append(keys, key)
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}
	return keys, nil
}

func (r *Remote) Parent(path string) (string, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", false
	}
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", true
	}
	return path[:idx], true
}

func (r *Remote) PathFromDisplay(display string) (string, bool) {
	bucket, prefix, err := ParseS3URI(display)
	if err != nil || bucket != r.bucket {
		return "", false
	}
	return prefix, true
}

func (r *Remote) DisplayPath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "s3://" + r.bucket
	}
	return "s3://" + r.bucket + "/" + path
}
