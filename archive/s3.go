package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/pkg/errors"

	"github.com/bitcoinchain/blockimporter/ingest"
	"github.com/bitcoinchain/blockimporter/logger"
)

// S3Storage archives blocks the Bulk Loader could not insert, keyed by
// block hash, so they can be inspected or replayed later instead of being
// silently dropped.
type S3Storage struct {
	Config  S3Config
	Session *session.Session
}

// NewS3Storage creates an S3Storage with a new AWS session built from the
// environment's default credential chain.
func NewS3Storage(config S3Config) S3Storage {
	return S3Storage{
		Config:  config,
		Session: session.Must(session.NewSession(aws.NewConfig())),
	}
}

type failedBlockRecord struct {
	BlockHash    string `json:"block_hash"`
	Height       int32  `json:"height"`
	Transactions int    `json:"transactions"`
	SourceFile   string `json:"source_file"`
	Cause        string `json:"cause"`
}

// ArchiveFailedBlock writes a JSON record describing a block that the Bulk
// Loader failed to insert, along with the error that caused the failure.
func (s S3Storage) ArchiveFailedBlock(ctx context.Context, block *ingest.Block, cause error) error {
	record := failedBlockRecord{
		BlockHash:    block.BlockHash.String(),
		Height:       block.Height,
		Transactions: len(block.Transactions),
		SourceFile:   block.SourceFile,
		Cause:        cause.Error(),
	}

	body, err := json.Marshal(record)
	if err != nil {
		return errors.Wrap(err, "marshal failed block record")
	}

	key := s.Config.Root + "/" + block.BlockHash.String() + ".json"
	return s.write(ctx, key, body)
}

func (s S3Storage) write(ctx context.Context, key string, body []byte) error {
	svc := s3.New(s.Session)

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}

	var err error
	for i := 0; i <= s.Config.MaxRetries; i++ {
		if i != 0 {
			time.Sleep(time.Duration(s.Config.RetryDelay) * time.Millisecond)
		}

		if _, err = svc.PutObject(input); err == nil {
			return nil
		}

		logger.Error(ctx, "s3 put failed for %s: %s", key, err)
	}

	return errors.Wrapf(err, "key: %s", key)
}

// Read fetches a previously archived object, for manual replay tooling.
func (s S3Storage) Read(ctx context.Context, key string) ([]byte, error) {
	svc := s3.New(s.Session)

	document, err := svc.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.Config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "key: %s", key)
	}
	defer document.Body.Close()

	b, err := ioutil.ReadAll(document.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "key: %s", key)
	}

	return b, nil
}
