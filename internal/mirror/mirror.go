// Package mirror keeps copies of book files in an S3-compatible bucket and
// hands out short-lived presigned URLs for them.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dmitrijs2005/elibrary/internal/client/models"
	"github.com/dmitrijs2005/elibrary/internal/logging"
	"github.com/dmitrijs2005/elibrary/internal/netx"
)

const DefaultExpires = 15 * time.Minute

var ErrNoFile = errors.New("book has no file")

var (
	loadDefaultAWSConfig  = config.LoadDefaultConfig
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Expires   time.Duration
}

// Enabled reports whether enough is configured to reach a bucket.
func (c Config) Enabled() bool {
	return c.Endpoint != "" && c.Bucket != ""
}

type Mirror struct {
	cfg     Config
	client  *s3.Client
	presign *s3.PresignClient
	hc      *http.Client
	log     logging.Logger
}

func New(ctx context.Context, cfg Config, log logging.Logger) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mirror: endpoint and bucket are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.Expires <= 0 {
		cfg.Expires = DefaultExpires
	}
	if log == nil {
		log = logging.Discard()
	}

	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("mirror: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	return &Mirror{
		cfg:     cfg,
		client:  client,
		presign: s3.NewPresignClient(client),
		hc:      &http.Client{Timeout: 5 * time.Minute},
		log:     log,
	}, nil
}

// Key is the object key of a book file: books/<id>/<file name>.
func Key(bookID int64, fileRef string) (string, error) {
	if fileRef == "" {
		return "", ErrNoFile
	}
	p := fileRef
	if u, err := url.Parse(fileRef); err == nil && u.Path != "" {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return "", ErrNoFile
	}
	return "books/" + strconv.FormatInt(bookID, 10) + "/" + name, nil
}

// DownloadURL presigns a GET for the mirrored copy of book's file. It
// returns ErrNoFile when the bucket has no copy yet.
func (m *Mirror) DownloadURL(ctx context.Context, book models.Book) (string, error) {
	key, err := Key(book.ID, book.File)
	if err != nil {
		return "", err
	}

	_, err = headObject(m.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", fmt.Errorf("%w: %s not mirrored", ErrNoFile, key)
		}
		return "", fmt.Errorf("mirror: head %s: %w", key, err)
	}

	req, err := presignGetObject(m.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(m.cfg.Expires))
	if err != nil {
		return "", fmt.Errorf("mirror: presign get %s: %w", key, err)
	}
	return req.URL, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == http.StatusNotFound
}

// Upload stores body as the mirrored copy of book's file.
func (m *Mirror) Upload(ctx context.Context, book models.Book, body io.Reader, size int64, contentType string) error {
	key, err := Key(book.ID, book.File)
	if err != nil {
		return err
	}

	req, err := presignPutObject(m.presign, ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(m.cfg.Expires))
	if err != nil {
		return fmt.Errorf("mirror: presign put %s: %w", key, err)
	}

	if err := netx.UploadToPresignedURL(ctx, m.hc, req.URL, body, size, contentType); err != nil {
		return fmt.Errorf("mirror: upload %s: %w", key, err)
	}
	m.log.Info(ctx, "book file mirrored", "book_id", book.ID, "key", key, "size", size)
	return nil
}
