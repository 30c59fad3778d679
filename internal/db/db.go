package db

import (
	"context"
	"fmt"
	"log"
	"time"

	"agora/internal/config"
	"agora/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is the persistence handle passed down to services and handlers.
// Every storage operation should go through Ctx so that it carries a bounded
// deadline.
type Store struct {
	DB      *gorm.DB
	Timeout time.Duration
}

// Open connects to the configured database and runs migrations and seeding.
func Open(cfg *config.Config) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		// unique violations come back as gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if cfg.DBDriver == config.DriverSQLite {
		// SQLite allows a single writer; one connection avoids "database is locked".
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	log.Println("Database connection established")

	store := &Store{DB: gdb, Timeout: cfg.StoreTimeout}
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	log.Println("Database migration completed")

	if err := store.SeedCategories(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *Store) Migrate() error {
	err := s.DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Idea{},
		&models.Comment{},
		&models.Report{},
		&models.Notification{},
		&models.Poll{},
	)
	if err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}

// Ctx returns a session bound to ctx with the store timeout applied.
func (s *Store) Ctx(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	c, cancel := context.WithTimeout(ctx, s.Timeout)
	return s.DB.WithContext(c), cancel
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	c, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	return sqlDB.PingContext(c)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) SeedCategories() error {
	var count int64
	if err := s.DB.Model(&models.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return nil
	}

	categories := []models.Category{
		{Name: "Environnement", Description: "Propositions liées à l'écologie et au développement durable", Icon: "🌱", Color: "#22c55e"},
		{Name: "Transport", Description: "Mobilité urbaine, transports publics et infrastructures", Icon: "🚌", Color: "#3b82f6"},
		{Name: "Culture", Description: "Événements culturels, patrimoine et arts", Icon: "🎭", Color: "#a855f7"},
		{Name: "Éducation", Description: "Écoles, formation et enseignement", Icon: "📚", Color: "#f59e0b"},
		{Name: "Santé", Description: "Services de santé et bien-être", Icon: "⚕️", Color: "#ef4444"},
		{Name: "Urbanisme", Description: "Aménagement urbain, logement et espaces publics", Icon: "🏙️", Color: "#64748b"},
		{Name: "Social", Description: "Solidarité, inclusion et vie associative", Icon: "🤝", Color: "#ec4899"},
		{Name: "Économie", Description: "Commerce local, emploi et entreprises", Icon: "💼", Color: "#14b8a6"},
	}
	for i := range categories {
		if err := s.DB.Create(&categories[i]).Error; err != nil {
			log.Printf("Failed to create category %s: %v", categories[i].Name, err)
		}
	}
	log.Println("Initial categories created successfully")
	return nil
}
