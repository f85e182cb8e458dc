package timingutils

import (
	"time"

	"gitee.com/czyczk/confidential-airdrop/internal/global"
	log "github.com/sirupsen/logrus"
)

// GetDeferrableTimingLogger starts a timer and returns the function that stops it. The stop function logs the elapsed
// time at debug level. Nothing is measured unless timing logs are enabled.
//
// Usage:
//   defer timingutils.GetDeferrableTimingLogger("加密")()
func GetDeferrableTimingLogger(action string) func() {
	if !global.ShowTimingLogs {
		return func() {}
	}

	start := time.Now()
	return func() {
		elapsed := time.Since(start)
		log.WithField("elapsed", SerializeDuration(elapsed)).Debugf("%v 完成", action)
	}
}

// SerializeDuration formats a duration rounded to milliseconds. Sub-millisecond durations are kept as is.
func SerializeDuration(duration time.Duration) string {
	if duration < time.Millisecond {
		return duration.String()
	}

	return duration.Round(time.Millisecond).String()
}
