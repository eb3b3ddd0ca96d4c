// Package objectstore checks that the JSON sources a load copies from exist
// before any warehouse statement runs.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// ErrKeyNotFound is returned when an object does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Location is a bucket and key prefix parsed from an s3:// URL.
type Location struct {
	Bucket string
	Prefix string
}

// String returns the location as an s3:// URL.
func (l Location) String() string {
	if l.Prefix == "" {
		return "s3://" + l.Bucket
	}
	return "s3://" + l.Bucket + "/" + l.Prefix
}

// IsS3 reports whether raw uses the s3:// scheme.
func IsS3(raw string) bool {
	return strings.HasPrefix(strings.ToLower(raw), "s3://")
}

// ParseURL parses a location of the form s3://<bucket>[/<prefix>].
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("error parsing S3 URL: %w", err)
	}
	if u.Scheme != "s3" {
		return Location{}, fmt.Errorf("expected S3 URL scheme %q but got %q", "s3", u.Scheme)
	}
	if u.Host == "" {
		return Location{}, fmt.Errorf("S3 URL %q has no bucket name", raw)
	}
	return Location{Bucket: u.Host, Prefix: strings.TrimPrefix(u.Path, "/")}, nil
}

// Client lists and probes objects through the S3 API.
type Client struct {
	api s3iface.S3API
}

// NewClient creates a client using the default AWS credential chain.
// An empty region falls back to the environment's configuration.
func NewClient(region string) (*Client, error) {
	cfg := aws.NewConfig()
	if region != "" {
		cfg = cfg.WithRegion(region)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return NewClientWithAPI(s3.New(sess)), nil
}

// NewClientWithAPI creates a client over an existing S3 API implementation.
func NewClientWithAPI(api s3iface.S3API) *Client {
	return &Client{api: api}
}

// List returns the keys under loc in key order, paging through the bucket
// listing. A positive limit stops the listing once that many keys are found.
func (c *Client) List(ctx context.Context, loc Location, limit int) ([]string, error) {
	var keys []string
	marker := ""
	for {
		resp, err := c.api.ListObjectsWithContext(ctx, &s3.ListObjectsInput{
			Bucket:  aws.String(loc.Bucket),
			Prefix:  aws.String(loc.Prefix),
			Marker:  aws.String(marker),
			MaxKeys: aws.Int64(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", loc, err)
		}

		for _, obj := range resp.Contents {
			keys = append(keys, aws.StringValue(obj.Key))
			if limit > 0 && len(keys) >= limit {
				return keys, nil
			}
		}
		if !aws.BoolValue(resp.IsTruncated) || len(resp.Contents) == 0 {
			return keys, nil
		}
		marker = aws.StringValue(resp.Contents[len(resp.Contents)-1].Key)
	}
}

// Exists reports whether the object at loc exists.
func (c *Client) Exists(ctx context.Context, loc Location) (bool, error) {
	_, err := c.api.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(loc.Bucket),
		Key:    aws.String(loc.Prefix),
	})
	if err == nil {
		return true, nil
	}
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		switch awsErr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return false, nil
		}
	}
	return false, fmt.Errorf("failed to probe %s: %w", loc, err)
}
