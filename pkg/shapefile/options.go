package shapefile

import (
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"github.com/beetlebugorg/shapefile/internal/codec"
)

// Options configures an Editor.
type Options struct {
	// Logger receives debug and warning events. Nil disables logging.
	Logger *zap.Logger

	// AutoBalance pads shapes or records after every mutation helper (and
	// after Open) so both lists stay the same length.
	// Default is true.
	AutoBalance bool

	// Encoding transcodes character columns on read and write. When nil a
	// .cpg sidecar is honoured on read and bytes are written as is.
	Encoding encoding.Encoding

	// CodePage is written to a .cpg sidecar by Save when set.
	CodePage string

	// Now stamps the attribute header date. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default options.
func DefaultOptions() Options {
	return Options{
		Logger:      zap.NewNop(),
		AutoBalance: true,
		Now:         time.Now,
	}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) readerOptions() codec.ReaderOptions {
	ro := codec.DefaultReaderOptions()
	ro.Encoding = o.Encoding
	return ro
}

func (o Options) writerOptions() codec.WriterOptions {
	wo := codec.DefaultWriterOptions()
	wo.Encoding = o.Encoding
	wo.CodePage = o.CodePage
	if o.Now != nil {
		wo.Now = o.Now
	}
	return wo
}
