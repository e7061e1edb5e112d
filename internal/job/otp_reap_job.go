package job

import (
	"context"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/staffdesk/ems/internal/otp"
	"github.com/staffdesk/ems/internal/pkg/metrics"
)

// OTPReapJob removes code records older than the expiry window. Expired
// records are already rejected on read; this only reclaims space.
type OTPReapJob struct {
	reaper otp.Reaper
	ttl    time.Duration
	now    func() time.Time
}

func NewOTPReapJob(reaper otp.Reaper, ttl time.Duration) *OTPReapJob {
	return &OTPReapJob{reaper: reaper, ttl: ttl, now: time.Now}
}

func (j *OTPReapJob) Name() string {
	return "otp_reap"
}

func (j *OTPReapJob) Run(ctx context.Context) error {
	if j.reaper == nil {
		return nil
	}
	ttl := j.ttl
	if ttl <= 0 {
		ttl = otp.DefaultTTL
	}
	removed, err := j.reaper.DeleteCreatedBefore(ctx, j.now().Add(-ttl))
	if err != nil {
		return err
	}
	if removed > 0 {
		metrics.OTPReaped.Add(float64(removed))
		logutil.GetLogger(ctx).Info("expired otp records removed", zap.Int64("count", removed))
	}
	return nil
}
