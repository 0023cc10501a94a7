package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lookup-bot/internal/repository"
)

// ReportService builds the usage summary sent to the owner.
type ReportService struct {
	queryRepo *repository.QueryLogRepository
}

func NewReportService(queryRepo *repository.QueryLogRepository) *ReportService {
	return &ReportService{queryRepo: queryRepo}
}

// UsageSummary renders per-command totals for the 24 hours before now.
func (s *ReportService) UsageSummary(ctx context.Context, now time.Time) (string, error) {
	since := now.Add(-24 * time.Hour)

	counts, err := s.queryRepo.CountByCommandSince(ctx, since)
	if err != nil {
		return "", err
	}
	callers, err := s.queryRepo.CountCallersSince(ctx, since)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("📊 Lookup usage — last 24h\n")
	b.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02 15:04")))

	if len(counts) == 0 {
		b.WriteString("— no lookups in the last 24h")
		return b.String(), nil
	}

	b.WriteString(fmt.Sprintf("👤 Callers: %d\n", callers))
	for _, count := range counts {
		b.WriteString(fmt.Sprintf("• /%s — %d\n", count.Command, count.Total))
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
