// Package archive stores a JSON record of each block the loader failed to
// insert in S3 for later inspection and
// caches the live-sync chain tip in Redis, adapted from the teacher's
// generic storage package and narrowed to these two concrete uses.
package archive

import "fmt"

const (
	// DefaultMaxRetries is the number of retries for a failed S3 call.
	DefaultMaxRetries = 2

	// DefaultRetryDelay is the number of milliseconds to wait before a retry.
	DefaultRetryDelay = 200
)

// S3Config configures the S3 bucket failed blocks are archived to.
type S3Config struct {
	Bucket     string `envconfig:"ARCHIVE_BUCKET" json:"bucket"`
	Root       string `envconfig:"ARCHIVE_ROOT" default:"failed-blocks" json:"root"`
	MaxRetries int    `envconfig:"ARCHIVE_MAX_RETRIES" default:"2" json:"max_retries"`
	RetryDelay int    `envconfig:"ARCHIVE_RETRY_DELAY_MS" default:"200" json:"retry_delay"`
}

func (c S3Config) String() string {
	return fmt.Sprintf("{Bucket:%v Root:%v MaxRetries:%v RetryDelay:%v ms}",
		c.Bucket, c.Root, c.MaxRetries, c.RetryDelay)
}
