package source

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/rickgao/eod-data/internal/model"
)

type fakeS3 struct {
	pages   []*s3.ListObjectsV2Output
	objects map[string][]byte
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	page := 0
	if in.ContinuationToken != nil {
		page = 1
	}
	if page >= len(f.pages) {
		return &s3.ListObjectsV2Output{}, nil
	}
	return f.pages[page], nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(body))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[*in.Key]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func newTestS3(client s3API) *S3 {
	return &S3{
		client: client,
		bucket: "flatfiles",
		prefix: "us_stocks_sip/day_aggs_v1",
		logger: testLogger(),
	}
}

func TestS3_Key(t *testing.T) {
	src := newTestS3(&fakeS3{})
	got := src.key(model.Date(2025, 1, 15))
	want := "us_stocks_sip/day_aggs_v1/2025/01/2025-01-15.csv.gz"
	if got != want {
		t.Errorf("key() = %q, want %q", got, want)
	}
}

func TestS3_DiscoverAvailableDates_Paginates(t *testing.T) {
	client := &fakeS3{
		pages: []*s3.ListObjectsV2Output{
			{
				Contents: []types.Object{
					{Key: aws.String("us_stocks_sip/day_aggs_v1/2024/01/2024-01-03.csv.gz")},
					{Key: aws.String("us_stocks_sip/day_aggs_v1/2024/01/2024-01-02.csv.gz")},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("next"),
			},
			{
				Contents: []types.Object{
					{Key: aws.String("us_stocks_sip/day_aggs_v1/2024/02/2024-02-01.csv.gz")},
					{Key: aws.String("us_stocks_sip/day_aggs_v1/2024/02/notes.txt")},
				},
			},
		},
	}
	src := newTestS3(client)

	got, err := src.DiscoverAvailableDates(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	want := []time.Time{
		model.Date(2024, 1, 2),
		model.Date(2024, 1, 3),
		model.Date(2024, 2, 1),
	}
	if len(got) != len(want) {
		t.Fatalf("got %d dates, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("dates[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestS3_ReadTableForDate(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	gz.Write([]byte(sampleHeader + "AAPL,100000,120.5,121.0,122.0,119.5,1602648000000000000,5000\n"))
	gz.Close()

	client := &fakeS3{objects: map[string][]byte{
		"us_stocks_sip/day_aggs_v1/2020/10/2020-10-14.csv.gz": buf.Bytes(),
	}}
	src := newTestS3(client)

	rows, skipped, err := src.ReadTableForDate(context.Background(), model.Date(2020, 10, 14))
	if err != nil {
		t.Fatal(err)
	}
	if skipped != 0 || len(rows) != 1 || rows[0].Ticker != "AAPL" {
		t.Errorf("rows = %+v, skipped = %d", rows, skipped)
	}

	_, _, err = src.ReadTableForDate(context.Background(), model.Date(2020, 10, 15))
	if err == nil {
		t.Fatal("want error for missing object")
	}
}

func TestS3_Available(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{
		"us_stocks_sip/day_aggs_v1/2024/01/2024-01-02.csv.gz": nil,
	}}
	src := newTestS3(client)

	ok, err := src.Available(context.Background(), model.Date(2024, 1, 2))
	if err != nil || !ok {
		t.Errorf("Available(existing) = %v, %v", ok, err)
	}
	ok, err = src.Available(context.Background(), model.Date(2024, 1, 3))
	if err != nil || ok {
		t.Errorf("Available(missing) = %v, %v", ok, err)
	}
}

type failingS3 struct{ fakeS3 }

func (f *failingS3) HeadObject(context.Context, *s3.HeadObjectInput, ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	return nil, errors.New("connection refused")
}

func TestS3_Available_TransportError(t *testing.T) {
	src := newTestS3(&failingS3{})

	_, err := src.Available(context.Background(), model.Date(2024, 1, 2))
	if err == nil {
		t.Fatal("want transport error surfaced")
	}
}
