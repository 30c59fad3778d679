package services

import (
	"context"
	"time"

	"agora/internal/db"
	"agora/internal/models"
	"agora/internal/utils"

	"gorm.io/gorm"
)

const globalStatsKey = "stats:global"

// Stats is the public platform summary.
type Stats struct {
	Participants int64 `json:"participants"`
	Proposals    int64 `json:"proposals"`
	Votes        int64 `json:"votes"`
	Comments     int64 `json:"comments"`
	Categories   int64 `json:"categories"`
	Polls        int64 `json:"polls"`
}

// AdminStats is the moderation dashboard summary.
type AdminStats struct {
	Users          int64            `json:"users"`
	BannedUsers    int64            `json:"banned_users"`
	Ideas          int64            `json:"ideas"`
	IdeasByStatus  map[string]int64 `json:"ideas_by_status"`
	Comments       int64            `json:"comments"`
	PendingReports int64            `json:"pending_reports"`
	Polls          int64            `json:"polls"`
}

// StatsService computes aggregates. Only the public summary is memoized, for
// a short TTL; entity reads never go through the cache.
type StatsService struct {
	store *db.Store
	cache *utils.Cache
	ttl   time.Duration
}

func NewStatsService(store *db.Store, ttl time.Duration) *StatsService {
	return &StatsService{store: store, cache: utils.NewCache(16), ttl: ttl}
}

func countRows(tx *gorm.DB, model interface{}, query string, args ...interface{}) (int64, error) {
	var n int64
	q := tx.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	err := q.Count(&n).Error
	return n, err
}

func (s *StatsService) Global(ctx context.Context) (*Stats, error) {
	if cached, ok := s.cache.Get(globalStatsKey).(*Stats); ok {
		return cached, nil
	}

	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	var (
		st  Stats
		err error
	)
	if st.Participants, err = countRows(tx, &models.User{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.Proposals, err = countRows(tx, &models.Idea{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.Comments, err = countRows(tx, &models.Comment{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.Categories, err = countRows(tx, &models.Category{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.Polls, err = countRows(tx, &models.Poll{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	err = tx.Model(&models.Idea{}).
		Select("COALESCE(SUM(votes_up + votes_down), 0)").
		Scan(&st.Votes).Error
	if err != nil {
		return nil, StoreErr(err)
	}

	s.cache.Set(globalStatsKey, &st, s.ttl)
	return &st, nil
}

func (s *StatsService) Admin(ctx context.Context) (*AdminStats, error) {
	tx, cancel := s.store.Ctx(ctx)
	defer cancel()

	st := AdminStats{IdeasByStatus: map[string]int64{}}
	var err error
	if st.Users, err = countRows(tx, &models.User{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.BannedUsers, err = countRows(tx, &models.User{}, "is_banned = ?", true); err != nil {
		return nil, StoreErr(err)
	}
	if st.Comments, err = countRows(tx, &models.Comment{}, ""); err != nil {
		return nil, StoreErr(err)
	}
	if st.PendingReports, err = countRows(tx, &models.Report{}, "status = ?", models.ReportPending); err != nil {
		return nil, StoreErr(err)
	}
	if st.Polls, err = countRows(tx, &models.Poll{}, ""); err != nil {
		return nil, StoreErr(err)
	}

	var rows []struct {
		Status string
		Total  int64
	}
	err = tx.Model(&models.Idea{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, StoreErr(err)
	}
	for _, status := range []models.IdeaStatus{models.StatusDiscussion, models.StatusApproved, models.StatusRejected, models.StatusInProgress} {
		st.IdeasByStatus[string(status)] = 0
	}
	for _, r := range rows {
		st.IdeasByStatus[r.Status] = r.Total
		st.Ideas += r.Total
	}
	return &st, nil
}
