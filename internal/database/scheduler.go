package database

import (
	"time"

	"go.uber.org/zap"

	"github.com/kontaktio/kontakt/internal/logging"
)

const summaryView = "contact_summary_stats"

// SummaryScheduler keeps the analytics summary materialized view fresh.
type SummaryScheduler struct {
	interval time.Duration
	stopChan chan struct{}
}

// NewSummaryScheduler creates a scheduler refreshing at the given interval.
func NewSummaryScheduler(interval time.Duration) *SummaryScheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SummaryScheduler{
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the refresh loop.
func (ss *SummaryScheduler) Start() {
	logging.L().Info("starting summary refresh scheduler",
		zap.String("view", summaryView),
		zap.Duration("interval", ss.interval))
	go ss.run()
}

// Stop gracefully stops the scheduler.
func (ss *SummaryScheduler) Stop() {
	close(ss.stopChan)
}

func (ss *SummaryScheduler) run() {
	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	// Initial refresh on startup
	ss.refresh()

	for {
		select {
		case <-ticker.C:
			ss.refresh()
		case <-ss.stopChan:
			return
		}
	}
}

func (ss *SummaryScheduler) refresh() {
	start := time.Now()

	_, err := DB.Exec("REFRESH MATERIALIZED VIEW CONCURRENTLY " + summaryView)
	if err != nil {
		logging.L().Warn("failed to refresh summary view",
			zap.String("view", summaryView),
			zap.Error(err))
		return
	}

	logging.L().Debug("refreshed summary view",
		zap.String("view", summaryView),
		zap.Duration("duration", time.Since(start)))
}
