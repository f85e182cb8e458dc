package calc

import (
	"fmt"
	"time"

	"gitee.com/czyczk/confidential-airdrop/pkg/models/airdrop"
	log "github.com/sirupsen/logrus"
)

// ConfirmationStats summarizes the submission history.
type ConfirmationStats struct {
	Submitted  int // 仍在等待确认
	Confirmed  int
	Failed     int
	Recipients int // 已确认的提交所覆盖的接收者总数

	// 以下只统计已确认的提交
	OverallConsumption time.Duration // 最早提交至最后确认
	AvgConsumption     time.Duration
	MaxConsumption     time.Duration
}

// CalcConfirmationStats computes how long submissions took from broadcast to confirmation.
func CalcConfirmationStats(records []*airdrop.SubmissionRecord) (stats *ConfirmationStats, err error) {
	if len(records) == 0 {
		err = fmt.Errorf("no submission found")
		return
	}

	stats = &ConfirmationStats{}
	var timestampsBefore, timestampsAfter []time.Time
	consumptionSum := time.Duration(0)
	for _, r := range records {
		switch r.Status {
		case airdrop.TxSubmitted:
			stats.Submitted++
			continue
		case airdrop.TxFailed:
			log.Infof("Submission '%v' failed and will be ignored.", r.TransactionID)
			stats.Failed++
			continue
		}

		consumption := r.TimeUpdated.Sub(r.TimeCreated)
		if consumption < 0 {
			err = fmt.Errorf("submission '%v' was updated before it was created", r.TransactionID)
			return
		}

		stats.Confirmed++
		stats.Recipients += r.RecipientCount
		consumptionSum += consumption
		if consumption > stats.MaxConsumption {
			stats.MaxConsumption = consumption
		}
		timestampsBefore = append(timestampsBefore, r.TimeCreated)
		timestampsAfter = append(timestampsAfter, r.TimeUpdated)
	}

	if stats.Confirmed == 0 {
		return
	}

	stats.OverallConsumption = getMax(timestampsAfter).Sub(getMin(timestampsBefore))
	stats.AvgConsumption = time.Duration(int64(consumptionSum) / int64(stats.Confirmed))
	return
}
