// Package gormstore implements the data-access contract on top of gorm, used
// by the "postgres" storage driver. Rows are separate structs carrying the
// gorm mapping; copier moves data between rows and model records.
package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/iliyamo/cinema-schedule-api/internal/model"
	"github.com/iliyamo/cinema-schedule-api/internal/repository"
)

type movieRow struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	Duration    uint32     `gorm:"not null;default:0"`
	AgeLimit    uint8      `gorm:"not null;default:0"`
	ReleaseDate model.Date `gorm:"type:date;index"`
}

func (movieRow) TableName() string { return "movies" }

type scheduleRow struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement"`
	MovieID    uint64    `gorm:"not null;index"`
	StartsAt   time.Time `gorm:"not null;index"`
	Auditorium uint16    `gorm:"not null;default:0"`
	PriceCents uint32    `gorm:"not null;default:0"`
	Movie      *movieRow `gorm:"foreignKey:MovieID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (scheduleRow) TableName() string { return "schedules" }

// Migrate creates or updates the movies and schedules tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&movieRow{}, &scheduleRow{})
}

// Movies implements repository.MovieStore with gorm.
type Movies struct{ db *gorm.DB }

// NewMovies wraps a gorm handle.
func NewMovies(db *gorm.DB) *Movies { return &Movies{db: db} }

func (r *Movies) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&movieRow{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *Movies) List(ctx context.Context, offset, limit int) ([]model.Movie, error) {
	var rows []movieRow
	err := r.db.WithContext(ctx).
		Order("release_date ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Movie, 0, len(rows))
	if err := copier.Copy(&out, &rows); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Movies) Find(ctx context.Context, id uint64) (*model.Movie, error) {
	var row movieRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrMovieNotFound
		}
		return nil, err
	}
	var m model.Movie
	if err := copier.Copy(&m, &row); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Movies) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&movieRow{}).Where("id = ?", id).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save creates the row when m.ID is zero; otherwise every column is
// overwritten, including zero values.
func (r *Movies) Save(ctx context.Context, m *model.Movie) error {
	var row movieRow
	if err := copier.Copy(&row, m); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if row.ID == 0 {
		if err := db.Create(&row).Error; err != nil {
			return err
		}
		m.ID = row.ID
		return nil
	}
	res := db.Model(&movieRow{}).Where("id = ?", row.ID).Select("*").Omit("id").Updates(&row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrMovieNotFound
	}
	return nil
}

// Kill deletes the movie and its schedules in one transaction.
func (r *Movies) Kill(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("movie_id = ?", id).Delete(&scheduleRow{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&movieRow{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrMovieNotFound
		}
		return nil
	})
}

// Schedules implements repository.ScheduleStore with gorm.
type Schedules struct{ db *gorm.DB }

// NewSchedules wraps a gorm handle.
func NewSchedules(db *gorm.DB) *Schedules { return &Schedules{db: db} }

func (r *Schedules) Count(ctx context.Context, movieID uint64) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&scheduleRow{}).Where("movie_id = ?", movieID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *Schedules) List(ctx context.Context, movieID uint64, offset, limit int) ([]model.Schedule, error) {
	var rows []scheduleRow
	err := r.db.WithContext(ctx).
		Where("movie_id = ?", movieID).
		Order("starts_at ASC").Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]model.Schedule, 0, len(rows))
	if err := copier.Copy(&out, &rows); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Schedules) Find(ctx context.Context, id uint64) (*model.Schedule, error) {
	var row scheduleRow
	if err := r.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrScheduleNotFound
		}
		return nil, err
	}
	var s model.Schedule
	if err := copier.Copy(&s, &row); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Schedules) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&scheduleRow{}).Where("id = ?", id).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Save locks the parent movie row FOR SHARE before writing so the schedule
// cannot outlive a concurrently deleted movie.
func (r *Schedules) Save(ctx context.Context, s *model.Schedule) error {
	var row scheduleRow
	if err := copier.Copy(&row, s); err != nil {
		return err
	}
	row.StartsAt = row.StartsAt.UTC()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent movieRow
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id").First(&parent, row.MovieID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return repository.ErrMovieNotFound
			}
			return err
		}
		if row.ID == 0 {
			return tx.Omit(clause.Associations).Create(&row).Error
		}
		res := tx.Model(&scheduleRow{}).Where("id = ?", row.ID).
			Select("movie_id", "starts_at", "auditorium", "price_cents").
			Updates(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrScheduleNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.ID = row.ID
	return nil
}

func (r *Schedules) Kill(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&scheduleRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrScheduleNotFound
	}
	return nil
}

var (
	_ repository.MovieStore    = (*Movies)(nil)
	_ repository.ScheduleStore = (*Schedules)(nil)
)
