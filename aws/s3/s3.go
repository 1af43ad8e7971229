// Package s3 reads verbatim records from objects in an S3 bucket.
package s3

import (
	"io"
	"sync/atomic"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/biocache/opdk"
	"github.com/biocache/opdk/json"
	"github.com/pkg/errors"
)

// SrcOption is a functional option type for RawSource.
type SrcOption func(s *RawSource)

// OptSrcBucket is a SrcOption which sets the S3 bucket.
func OptSrcBucket(bucket string) SrcOption {
	return func(s *RawSource) {
		s.bucket = bucket
	}
}

// OptSrcRegion is a SrcOption which sets the AWS region.
func OptSrcRegion(region string) SrcOption {
	return func(s *RawSource) {
		s.region = region
	}
}

// OptSrcPrefix tells the source to list only the objects in the bucket that
// match the specified prefix.
func OptSrcPrefix(prefix string) SrcOption {
	return func(s *RawSource) {
		s.prefix = prefix
	}
}

// OptSrcClient sets the S3 client. By default one is built from a new
// session in the configured region.
func OptSrcClient(client s3iface.S3API) SrcOption {
	return func(s *RawSource) {
		s.s3 = client
	}
}

// RawSource hands out the objects of a bucket one at a time.
type RawSource struct {
	bucket string
	prefix string
	region string

	s3      s3iface.S3API
	objects []*s3.Object
	objIdx  *uint64
}

// NewRawSource lists the objects of the bucket under the prefix.
func NewRawSource(opts ...SrcOption) (*RawSource, error) {
	idx := uint64(0)
	rs := &RawSource{
		region: "us-east-1",
		objIdx: &idx,
	}
	for _, opt := range opts {
		opt(rs)
	}
	if rs.bucket == "" {
		return nil, errors.New("no bucket given")
	}
	if rs.s3 == nil {
		sess, err := session.NewSession(&aws.Config{
			Region: aws.String(rs.region)},
		)
		if err != nil {
			return nil, errors.Wrap(err, "getting new session")
		}
		rs.s3 = s3.New(sess)
	}
	err := rs.s3.ListObjectsPages(&s3.ListObjectsInput{Bucket: aws.String(rs.bucket), Prefix: aws.String(rs.prefix)},
		func(page *s3.ListObjectsOutput, lastPage bool) bool {
			rs.objects = append(rs.objects, page.Contents...)
			return true
		})
	if err != nil {
		return nil, errors.Wrap(err, "listing objects")
	}

	return rs, nil
}

type objReader struct {
	name string
	body io.ReadCloser
}

func (o *objReader) Read(buf []byte) (n int, err error) {
	return o.body.Read(buf)
}

func (o *objReader) Close() error {
	return o.body.Close()
}

func (o *objReader) Name() string {
	return o.name
}

// NextReader implements opdk.RawSource.
func (rs *RawSource) NextReader() (opdk.NamedReadCloser, error) {
	idx := atomic.AddUint64(rs.objIdx, 1) - 1
	if int(idx) >= len(rs.objects) {
		return nil, io.EOF
	}
	obj := rs.objects[idx]

	result, err := rs.s3.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(rs.bucket),
		Key:    obj.Key,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching %v", aws.StringValue(obj.Key))
	}
	return &objReader{name: rs.bucket + "." + aws.StringValue(obj.Key), body: result.Body}, nil
}

// NewSource returns a opdk.Source reading JSON lines from every object of
// the bucket under the prefix.
func NewSource(opts ...SrcOption) (opdk.Source, error) {
	rs, err := NewRawSource(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "getting raw s3 source")
	}
	return json.NewSourceFromRawSource(rs), nil
}
