package server

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a trip or plan does not exist.
var ErrNotFound = errors.New("record not found")

// User owns trips.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	FullName  string    `gorm:"not null"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Password  string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`

	Trips []Trip `gorm:"constraint:OnDelete:CASCADE"`
}

// Trip is a destination with optional departure and return dates (YYYY-MM-DD).
type Trip struct {
	ID          uint   `gorm:"primaryKey"`
	Destination string `gorm:"not null"`
	DepartDate  string
	ReturnDate  string
	UserID      uint `gorm:"not null;index"`

	Plans []Plan `gorm:"constraint:OnDelete:CASCADE"`
}

// Plan is one activity of a trip. A nil AtDate means the activity is not scheduled yet.
type Plan struct {
	ID       uint    `gorm:"primaryKey"`
	AtDate   *string `gorm:"index"`
	AtTime   string
	Activity string `gorm:"not null"`
	Cost     float64
	Note     string
	TripID   uint `gorm:"not null;index"`
}

// Day returns the plan date, or "" when unscheduled.
func (p Plan) Day() string {
	if p.AtDate == nil {
		return ""
	}
	return *p.AtDate
}

// Day groups the plans of one date. Date is "" for unscheduled plans.
type Day struct {
	Date  string
	Plans []Plan
}

// Days groups the trip plans by date, keeping their order.
func (t Trip) Days() []Day {
	var days []Day
	index := map[string]int{}
	for _, p := range t.Plans {
		d := p.Day()
		i, ok := index[d]
		if !ok {
			i = len(days)
			index[d] = i
			days = append(days, Day{Date: d})
		}
		days[i].Plans = append(days[i].Plans, p)
	}
	return days
}

// Store is the gorm-backed storage of the Wanderly backend.
type Store struct {
	db *gorm.DB
}

// OpenStore opens (or creates) the SQLite database at dsn and migrates the schema.
func OpenStore(dsn string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err := db.AutoMigrate(&User{}, &Trip{}, &Plan{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping runs a trivial query; it is what the readiness probe checks.
func (s *Store) Ping(ctx context.Context) error {
	var one int
	return s.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// ErrInvalid wraps validation failures of new records.
var ErrInvalid = errors.New("invalid record")

func (s *Store) CreateUser(ctx context.Context, u *User) error {
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: user email is required", ErrInvalid)
	}
	return s.db.WithContext(ctx).Create(u).Error
}

// Owner returns the account new trips are filed under, creating a guest
// account when the database has none.
func (s *Store) Owner(ctx context.Context) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Order("id").First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = User{FullName: "Guest", Email: "guest@wanderly.local", Password: "not-a-real-password"}
	if err := s.CreateUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("failed to create guest account: %w", err)
	}
	return &user, nil
}

// CreateTrip stores a new trip. Destination is required and dates, when both
// are set, must not run backwards.
func (s *Store) CreateTrip(ctx context.Context, t *Trip) error {
	t.Destination = strings.TrimSpace(t.Destination)
	if t.Destination == "" {
		return fmt.Errorf("%w: destination is required", ErrInvalid)
	}
	if t.DepartDate != "" && t.ReturnDate != "" && t.ReturnDate < t.DepartDate {
		return fmt.Errorf("%w: return date %s is before departure %s", ErrInvalid, t.ReturnDate, t.DepartDate)
	}
	return s.db.WithContext(ctx).Create(t).Error
}

// CreatePlan adds an activity to an existing trip.
func (s *Store) CreatePlan(ctx context.Context, p *Plan) error {
	p.Activity = strings.TrimSpace(p.Activity)
	if p.Activity == "" {
		return fmt.Errorf("%w: activity is required", ErrInvalid)
	}
	if p.AtDate != nil && *p.AtDate == "" {
		p.AtDate = nil
	}

	var trips int64
	if err := s.db.WithContext(ctx).Model(&Trip{}).Where("id = ?", p.TripID).Count(&trips).Error; err != nil {
		return err
	}
	if trips == 0 {
		return ErrNotFound
	}
	return s.db.WithContext(ctx).Create(p).Error
}

// ListTrips returns all trips ordered by departure, return and id.
func (s *Store) ListTrips(ctx context.Context) ([]Trip, error) {
	var trips []Trip
	err := s.db.WithContext(ctx).
		Order("depart_date, return_date, id").
		Find(&trips).Error
	return trips, err
}

// FindTrip loads a trip with its plans ordered by date, time and id.
func (s *Store) FindTrip(ctx context.Context, id uint) (*Trip, error) {
	var trip Trip
	err := s.db.WithContext(ctx).
		Preload("Plans", func(db *gorm.DB) *gorm.DB {
			return db.Order("at_date, at_time, id")
		}).
		First(&trip, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &trip, nil
}

// DeleteTrip removes a trip and all of its plans.
func (s *Store) DeleteTrip(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("trip_id = ?", id).Delete(&Plan{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&Trip{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteDay removes every plan of a trip on the given date.
// An empty day removes the unscheduled plans.
func (s *Store) DeleteDay(ctx context.Context, tripID uint, day string) (int64, error) {
	q := s.db.WithContext(ctx).Where("trip_id = ?", tripID)
	if day == "" {
		q = q.Where("(at_date IS NULL OR at_date = '')")
	} else {
		q = q.Where("at_date = ?", day)
	}
	res := q.Delete(&Plan{})
	return res.RowsAffected, res.Error
}

// DeletePlan removes one plan of a trip.
func (s *Store) DeletePlan(ctx context.Context, tripID, planID uint) error {
	res := s.db.WithContext(ctx).
		Where("trip_id = ? AND id = ?", tripID, planID).
		Delete(&Plan{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Seed fills an empty database with a demo user and two trips.
func (s *Store) Seed(ctx context.Context) error {
	var users int64
	if err := s.db.WithContext(ctx).Model(&User{}).Count(&users).Error; err != nil {
		return err
	}
	if users > 0 {
		return nil
	}

	day := func(d string) *string { return &d }
	user := User{
		FullName: "Demo Traveller",
		Email:    "demo@wanderly.local",
		Password: "not-a-real-password",
		Trips: []Trip{
			{
				Destination: "Lisbon",
				DepartDate:  "2025-06-01",
				ReturnDate:  "2025-06-05",
				Plans: []Plan{
					{AtDate: day("2025-06-01"), AtTime: "09:30", Activity: "Tram 28", Cost: 3},
					{AtDate: day("2025-06-01"), AtTime: "13:00", Activity: "Time Out Market"},
					{AtDate: day("2025-06-02"), AtTime: "10:00", Activity: "Belém Tower", Cost: 8},
					{Activity: "Fado night", Note: "pick a date"},
				},
			},
			{
				Destination: "Kyoto",
				DepartDate:  "2025-10-10",
				ReturnDate:  "2025-10-17",
				Plans: []Plan{
					{AtDate: day("2025-10-11"), AtTime: "06:00", Activity: "Fushimi Inari"},
				},
			},
		},
	}
	return s.db.WithContext(ctx).Create(&user).Error
}
