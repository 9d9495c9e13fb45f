package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/maheshrc27/postpilot/internal/repository"
)

const (
	publishHour = 18
	maxScanDays = 30
)

type SchedulerService interface {
	FindNextFreeSlot(ctx context.Context, userID int64, now time.Time) time.Time
}

type schedulerService struct {
	pr repository.PostRepository
}

func NewSchedulerService(pr repository.PostRepository) SchedulerService {
	return &schedulerService{pr: pr}
}

// FindNextFreeSlot scans forward from now for the first calendar day with no
// scheduled post and returns that day at 18:00 local time. Today only counts
// when the publish hour hasn't passed yet. A query failure marks the day
// unavailable and the scan moves on; if every day within 30 days is taken
// the slot degrades silently to exactly 30 days out.
func (s *schedulerService) FindNextFreeSlot(ctx context.Context, userID int64, now time.Time) time.Time {
	start := now
	if now.Hour() >= publishHour {
		start = start.AddDate(0, 0, 1)
	}

	for i := 0; i < maxScanDays; i++ {
		day := start.AddDate(0, 0, i)
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		dayEnd := dayStart.AddDate(0, 0, 1)

		count, err := s.pr.CountScheduledBetween(ctx, userID, dayStart, dayEnd)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if count == 0 {
			return time.Date(day.Year(), day.Month(), day.Day(), publishHour, 0, 0, 0, day.Location())
		}
	}

	fallback := now.AddDate(0, 0, maxScanDays)
	return time.Date(fallback.Year(), fallback.Month(), fallback.Day(), publishHour, 0, 0, 0, fallback.Location())
}
