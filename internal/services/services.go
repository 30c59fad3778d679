// Package services holds the domain operations. Handlers translate HTTP into
// calls on these services and map the returned error kinds to status codes.
package services

import (
	"agora/internal/config"
	"agora/internal/db"
	"agora/internal/metrics"
	"agora/internal/storage"
)

// Services bundles every domain service built over one store.
type Services struct {
	Effects    *Effects
	Notifier   *Notifier
	Badges     *BadgeAwarder
	Votes      *VoteService
	Ideas      *IdeaService
	Comments   *CommentService
	Polls      *PollService
	Categories *CategoryService
	Reports    *ReportService
	Auth       *AuthService
	Tokens     *TokenIssuer
	Admin      *AdminService
	Stats      *StatsService
	Uploads    *Uploader
}

func New(store *db.Store, cfg *config.Config, files storage.FileStore, ms *metrics.MetricService) *Services {
	// Side effects may retry badge writes, so they get more room than a
	// single storage call.
	effects := NewEffects(4 * cfg.StoreTimeout)
	notifier := NewNotifier(store, ms)
	badges := NewBadgeAwarder(store, cfg, effects, notifier, ms)
	publicURL := ""
	if cfg.S3.Bucket != "" {
		publicURL = cfg.S3.PublicURL
	}
	uploads := NewUploader(files, cfg.MaxUploadSize, publicURL)
	ideas := NewIdeaService(store, cfg, uploads, effects, notifier, badges)
	tokens := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)

	return &Services{
		Effects:    effects,
		Notifier:   notifier,
		Badges:     badges,
		Votes:      NewVoteService(store, cfg, effects, notifier, badges, ms),
		Ideas:      ideas,
		Comments:   NewCommentService(store, effects, notifier, badges),
		Polls:      NewPollService(store, ideas),
		Categories: NewCategoryService(store),
		Reports:    NewReportService(store, ideas, effects, notifier),
		Auth:       NewAuthService(store, tokens),
		Tokens:     tokens,
		Admin:      NewAdminService(store, effects, notifier),
		Stats:      NewStatsService(store, cfg.StatsCacheTTL),
		Uploads:    uploads,
	}
}
