package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Store reads from an S3 compatible bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	requesterPays bool
}

// NewS3Store creates a client from the default AWS credential chain.
func NewS3Store(ctx context.Context, conf Config) (*S3Store, error) {
	if conf.Bucket == "" {
		return nil, fmt.Errorf("s3 backend needs a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if conf.Region != "" {
		opts = append(opts, awsconfig.WithRegion(conf.Region))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.EndpointResolver = s3.EndpointResolverFromURL(conf.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        conf.Bucket,
		requesterPays: conf.RequesterPays,
	}, nil
}

// List implements Store.
func (s *S3Store) List(ctx context.Context, prefix, startAfter string, limit int) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	}
	if startAfter != "" {
		input.StartAfter = aws.String(startAfter)
	}
	if limit > 0 {
		input.MaxKeys = int32(limit)
	}
	if s.requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	keys := []string{}
	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if limit > 0 && len(keys) >= limit {
			break
		}
	}

	return applyLimit(keys, limit), nil
}

// Get implements Store.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}
	if s.requesterPays {
		input.RequestPayer = types.RequestPayerRequester
	}

	out, err := s.client.GetObject(ctx, input)
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, notFound(key)
		}
		return nil, err
	}
	defer out.Body.Close()

	return ioutil.ReadAll(out.Body)
}
