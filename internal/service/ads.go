package service

import (
	"time"

	"github.com/sakif/edtech-platform/internal/apperror"
	"github.com/sakif/edtech-platform/internal/schedule"
)

// DefaultDialogSnooze is how long a dismissed promo dialog stays hidden.
const DefaultDialogSnooze = 24 * time.Hour

// AdsService tracks per-user suppression of the promotional dialog.
type AdsService struct {
	sched *schedule.Scheduler
}

func NewAdsService(sched *schedule.Scheduler) *AdsService {
	return &AdsService{sched: sched}
}

func adsKey(userID string) string { return "ads:" + userID }

// Dismiss hides the dialog for d (DefaultDialogSnooze when d is zero) and
// returns the time it reappears.
func (s *AdsService) Dismiss(userID string, d time.Duration) (time.Time, error) {
	if d == 0 {
		d = DefaultDialogSnooze
	}
	if d < 0 || d > 30*24*time.Hour {
		return time.Time{}, apperror.ValidationFailed("duration", "duration must be between 0 and 30 days")
	}
	return s.sched.Start(adsKey(userID), d), nil
}

// Visible reports whether the dialog may be shown to userID now.
func (s *AdsService) Visible(userID string) bool {
	return s.sched.State(adsKey(userID)) != schedule.Running
}
