package resource

import (
	"context"
	"io"
)

// RateLimitedReader wraps an io.Reader with the controller's IO limit.
type RateLimitedReader struct {
	r   io.Reader
	rc  *Controller
	ctx context.Context
}

// NewRateLimitedReader creates a new RateLimitedReader.
func NewRateLimitedReader(ctx context.Context, r io.Reader, rc *Controller) *RateLimitedReader {
	return &RateLimitedReader{
		r:   r,
		rc:  rc,
		ctx: ctx,
	}
}

// Read waits for len(p) bytes of budget, then reads.
func (r *RateLimitedReader) Read(p []byte) (n int, err error) {
	if err := r.rc.WaitIO(r.ctx, len(p)); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
