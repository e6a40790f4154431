package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/rickgao/eod-data/internal/config"
	"github.com/rickgao/eod-data/internal/model"
)

// s3API is the slice of the S3 client the source needs.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 reads flatfiles from the vendor's S3-compatible flatfile service.
type S3 struct {
	client s3API
	bucket string
	prefix string
	logger *slog.Logger
}

// NewS3 creates an S3 source for one data type. The vendor's endpoint is
// S3-compatible but not AWS, so the client uses a base endpoint override,
// path-style addressing, and static credentials.
func NewS3(ctx context.Context, cfg config.S3Config, dataType DataType, logger *slog.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	prefix := cfg.StocksPrefix
	if dataType == Options {
		prefix = cfg.OptionsPrefix
	}

	logger.Info("s3 flatfile source initialized",
		"endpoint", cfg.Endpoint,
		"bucket", cfg.Bucket,
		"prefix", prefix,
	)

	return &S3{
		client: client,
		bucket: cfg.Bucket,
		prefix: prefix,
		logger: logger.With("source", "s3", "data_type", string(dataType)),
	}, nil
}

func (s *S3) key(day time.Time) string {
	return path.Join(
		s.prefix,
		fmt.Sprintf("%04d", day.Year()),
		fmt.Sprintf("%02d", int(day.Month())),
		day.Format("2006-01-02")+".csv.gz",
	)
}

// DiscoverAvailableDates lists every date-stamped object under the prefix,
// paging through ListObjectsV2, sorted ascending.
func (s *S3) DiscoverAvailableDates(ctx context.Context, start, end time.Time) ([]time.Time, error) {
	var dates []time.Time

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	}
	for {
		out, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("list objects under %s: %w", s.prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			day, ok := fileDate(path.Base(*obj.Key))
			if !ok {
				continue
			}
			if inRange(day, start, end) {
				dates = append(dates, day)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// ReadTableForDate fetches and decodes the flatfile object for one date.
func (s *S3) ReadTableForDate(ctx context.Context, day time.Time) ([]model.FlatfileRow, int, error) {
	key := s.key(day)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	return decodeFlatfile(out.Body)
}

// Available probes the object for one date with a HEAD request.
func (s *S3) Available(ctx context.Context, day time.Time) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(day)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head s3://%s/%s: %w", s.bucket, s.key(day), err)
	}
	return true, nil
}

// DateRange reports the earliest and latest flatfile dates in the bucket.
func (s *S3) DateRange(ctx context.Context) (time.Time, time.Time, error) {
	dates, err := s.DiscoverAvailableDates(ctx, time.Time{}, time.Time{})
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if len(dates) == 0 {
		return time.Time{}, time.Time{}, nil
	}
	return dates[0], dates[len(dates)-1], nil
}
