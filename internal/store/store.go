package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ppiankov/satyamitra/internal/model"
)

// Store persists domain reputations, verification history and source logs
type Store struct {
	db     *gorm.DB
	driver string
	logger *slog.Logger
}

// Open connects to the configured database, migrates the schema and seeds the
// reputation table of an empty database when cfg.Seed is set
func Open(ctx context.Context, cfg model.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	driver := strings.ToLower(cfg.Driver)

	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		driver = "sqlite"
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("get sql db: %w", err)
		}
		// sqlite allows one writer; serialize instead of failing with SQLITE_BUSY
		sqlDB.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, driver, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Seed {
		if err := s.Seed(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// New wraps an open gorm connection and migrates the schema
func New(ctx context.Context, db *gorm.DB, driver string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := db.WithContext(ctx).AutoMigrate(&DomainReputation{}, &VerificationHistory{}, &SourceLog{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return &Store{db: db, driver: driver, logger: logger.With("component", "store")}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Seed inserts SeedReputations when the reputation table is empty
func (s *Store) Seed(ctx context.Context) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&DomainReputation{}).Count(&count).Error; err != nil {
		return fmt.Errorf("count reputations: %w", err)
	}
	if count > 0 {
		return nil
	}

	rows := make([]DomainReputation, 0, len(SeedReputations))
	for _, rec := range SeedReputations {
		rows = append(rows, DomainReputation{Domain: rec.Domain, Status: string(rec.Status), Confidence: rec.Confidence})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("seed reputations: %w", err)
	}

	s.logger.Info("Seeded reputation table", "rows", len(rows))
	return nil
}

// GetReputation returns the record for a normalized domain or ErrNotFound
func (s *Store) GetReputation(ctx context.Context, domain string) (*model.ReputationRecord, error) {
	var row DomainReputation
	err := s.db.WithContext(ctx).Where("domain = ?", domain).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reputation %s: %w", domain, err)
	}
	return row.toModel(), nil
}

// UpsertReputation overwrites the record for rec.Domain (last write wins)
func (s *Store) UpsertReputation(ctx context.Context, rec model.ReputationRecord) error {
	row := DomainReputation{
		Domain:     rec.Domain,
		Status:     string(rec.Status),
		Confidence: rec.Confidence,
		UpdatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "domain"}},
			UpdateAll: true,
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert reputation %s: %w", rec.Domain, err)
	}
	return nil
}

// InsertHistory appends a history entry and returns its generated id
func (s *Store) InsertHistory(ctx context.Context, entry model.HistoryEntry) (uint, error) {
	row := historyFromModel(entry)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert history: %w", err)
	}
	return row.ID, nil
}

// GetHistory returns one history entry or ErrNotFound
func (s *Store) GetHistory(ctx context.Context, id uint) (*model.HistoryEntry, error) {
	var row VerificationHistory
	err := s.db.WithContext(ctx).Take(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get history %d: %w", id, err)
	}
	entry := row.toModel()
	return &entry, nil
}

// InsertSourceLogs appends source attributions for a history entry
func (s *Store) InsertSourceLogs(ctx context.Context, logs []model.SourceLogEntry) error {
	if len(logs) == 0 {
		return nil
	}

	rows := make([]SourceLog, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, SourceLog{
			ClaimID:          l.ClaimID,
			SourceType:       l.SourceType,
			SourceIdentifier: l.SourceIdentifier,
			Verdict:          string(l.Verdict),
		})
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("insert source logs: %w", err)
	}
	return nil
}

// SourceLogs returns the source attributions of one history entry
func (s *Store) SourceLogs(ctx context.Context, claimID uint) ([]model.SourceLogEntry, error) {
	var rows []SourceLog
	if err := s.db.WithContext(ctx).Where("claim_id = ?", claimID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list source logs: %w", err)
	}

	out := make([]model.SourceLogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.SourceLogEntry{
			ClaimID:          r.ClaimID,
			SourceType:       r.SourceType,
			SourceIdentifier: r.SourceIdentifier,
			Verdict:          model.Verdict(r.Verdict),
		})
	}
	return out, nil
}

// DeleteHistory removes history entries and their source logs in one transaction.
// Only admins may delete; the count is the number of history rows actually removed.
func (s *Store) DeleteHistory(ctx context.Context, role model.Role, ids []uint) (int64, error) {
	if role != model.RoleAdmin {
		return 0, ErrPermissionDenied
	}
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("claim_id IN ?", ids).Delete(&SourceLog{}).Error; err != nil {
			return fmt.Errorf("delete source logs: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&VerificationHistory{})
		if res.Error != nil {
			return fmt.Errorf("delete history: %w", res.Error)
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Deleted audit log entries", "requested", len(ids), "deleted", deleted)
	return deleted, nil
}
