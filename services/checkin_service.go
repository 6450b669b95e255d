package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/dailystreak/models"
	"github.com/cppla/dailystreak/utils"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxNotesRunes       = 2000
)

// CheckInService records daily check-ins and maintains each user's streak.
type CheckInService struct {
	db           *gorm.DB
	cal          *Calendar
	log          *zap.Logger
	backfillDays int
	// recorded answers the pre-insert duplicate check inside the transaction.
	recorded func(tx *gorm.DB, userID uint, date string) (bool, error)
}

// NewCheckInService creates a service. backfillDays is how many days before
// today a check-in may still be recorded; 0 allows today only.
func NewCheckInService(db *gorm.DB, cal *Calendar, logger *zap.Logger, backfillDays int) *CheckInService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if backfillDays < 0 {
		backfillDays = 0
	}
	return &CheckInService{db: db, cal: cal, log: logger, backfillDays: backfillDays, recorded: checkedIn}
}

// CheckInInput carries the optional fields of a check-in request.
type CheckInInput struct {
	Date      string // YYYY-MM-DD; empty means today
	Notes     string
	Completed bool
}

// CheckInReceipt is what a caller needs to render the result without a second fetch.
type CheckInReceipt struct {
	CheckIn          models.CheckIn     `json:"check_in"`
	Streak           models.StreakState `json:"streak"`
	AlreadyCheckedIn bool               `json:"already_checked_in"`
}

// RecordCheckIn stores the user's check-in for a date and advances the streak.
// A repeat call for the same date is not an error: it returns the stored
// check-in with AlreadyCheckedIn set and leaves the streak untouched.
func (s *CheckInService) RecordCheckIn(ctx context.Context, userID uint, in CheckInInput) (*CheckInReceipt, error) {
	date, err := s.resolveDate(in.Date)
	if err != nil {
		return nil, err
	}

	receipt, err := s.insert(ctx, userID, date, in)
	if err == nil {
		s.log.Info("check-in recorded",
			zap.Uint("user_id", userID),
			zap.String("date", date),
			zap.Int("current_streak", receipt.Streak.CurrentStreak),
			zap.Int("total_check_ins", receipt.Streak.TotalCheckIns),
		)
		return receipt, nil
	}
	if !errors.Is(err, ErrAlreadyCheckedIn) && !errors.Is(err, ErrConflict) {
		return nil, err
	}

	// Someone (possibly a concurrent twin of this request) already wrote the
	// row; read it back once instead of inserting again.
	existing, rerr := s.existing(ctx, userID, date)
	if rerr != nil {
		if errors.Is(rerr, ErrNotFound) {
			return nil, err
		}
		return nil, rerr
	}
	s.log.Debug("repeat check-in", zap.Uint("user_id", userID), zap.String("date", date), zap.Bool("race", errors.Is(err, ErrConflict)))
	return existing, nil
}

func (s *CheckInService) resolveDate(raw string) (string, error) {
	today := s.cal.Today()
	if strings.TrimSpace(raw) == "" {
		return today, nil
	}
	date, err := ParseDate(raw)
	if err != nil {
		return "", err
	}
	if date > today {
		return "", fmt.Errorf("%w: %s is in the future", ErrInvalidDate, date)
	}
	if DaysBetween(date, today) > s.backfillDays {
		return "", fmt.Errorf("%w: %s is outside the %d-day backfill window", ErrInvalidDate, date, s.backfillDays)
	}
	return date, nil
}

func (s *CheckInService) insert(ctx context.Context, userID uint, date string, in CheckInInput) (*CheckInReceipt, error) {
	var receipt *CheckInReceipt
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The user row is the per-user lock: concurrent check-ins of one user queue here.
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, ErrNotFound)
			}
			return err
		}

		done, err := s.recorded(tx, userID, date)
		if err != nil {
			return err
		}
		if done {
			return ErrAlreadyCheckedIn
		}

		var item models.ContentItem
		if err := tx.Where("date = ? AND is_active = ?", date, true).First(&item).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("no content scheduled for %s: %w", date, ErrNotFound)
			}
			return err
		}

		checkIn := models.CheckIn{
			UserID:        userID,
			ContentItemID: item.ID,
			CheckInDate:   date,
			Viewed:        true,
			Completed:     in.Completed,
			Notes:         truncateRunes(utils.SanitizePlain(in.Notes), maxNotesRunes),
		}
		if err := tx.Create(&checkIn).Error; err != nil {
			if isDuplicateKey(err) {
				return ErrConflict
			}
			return err
		}
		checkIn.ContentItem = &item

		var state models.StreakState
		found := true
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&state, "user_id = ?", userID).Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			found = false
			state = models.StreakState{UserID: userID}
		}

		if err := advance(tx, &state, date); err != nil {
			return err
		}

		if found {
			err = tx.Save(&state).Error
		} else {
			err = tx.Create(&state).Error
		}
		if err != nil {
			return err
		}

		receipt = &CheckInReceipt{CheckIn: checkIn, Streak: state}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// advance folds a newly inserted check-in on date into st.
func advance(tx *gorm.DB, st *models.StreakState, date string) error {
	last := st.LastCheckInDate
	switch {
	case last == nil:
		st.CurrentStreak = 1
		st.TotalCheckIns++
	case date == *last:
		// unreachable while (user_id, check_in_date) is unique
	case date > *last:
		if DaysBetween(*last, date) == 1 {
			st.CurrentStreak++
		} else {
			st.CurrentStreak = 1
		}
		st.TotalCheckIns++
	default:
		// A backfilled day can bridge two runs, so rebuild from the ledger.
		var dates []string
		if err := tx.Model(&models.CheckIn{}).
			Where("user_id = ?", st.UserID).
			Order("check_in_date ASC").
			Pluck("check_in_date", &dates).Error; err != nil {
			return err
		}
		current, longest := streaksFromDates(dates)
		st.CurrentStreak = current
		st.LongestStreak = max(st.LongestStreak, longest)
		st.TotalCheckIns = len(dates)
	}

	st.LongestStreak = max(st.LongestStreak, st.CurrentStreak)
	if last == nil || date > *last {
		d := date
		st.LastCheckInDate = &d
	}
	return nil
}

// streaksFromDates returns the run ending at the last date and the longest run.
// dates must be sorted ascending and distinct.
func streaksFromDates(dates []string) (current, longest int) {
	for i, d := range dates {
		if i > 0 && DaysBetween(dates[i-1], d) == 1 {
			current++
		} else {
			current = 1
		}
		longest = max(longest, current)
	}
	return current, longest
}

func (s *CheckInService) existing(ctx context.Context, userID uint, date string) (*CheckInReceipt, error) {
	var ci models.CheckIn
	err := s.db.WithContext(ctx).Preload("ContentItem").
		Where("user_id = ? AND check_in_date = ?", userID, date).
		First(&ci).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	state, err := s.Streak(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CheckInReceipt{CheckIn: ci, Streak: state, AlreadyCheckedIn: true}, nil
}

// checkedIn reports whether the user has a check-in on date.
func checkedIn(db *gorm.DB, userID uint, date string) (bool, error) {
	var count int64
	err := db.Model(&models.CheckIn{}).
		Where("user_id = ? AND check_in_date = ?", userID, date).
		Count(&count).Error
	return count > 0, err
}

// Streak returns the user's streak; a user who never checked in gets the zero state.
func (s *CheckInService) Streak(ctx context.Context, userID uint) (models.StreakState, error) {
	var state models.StreakState
	err := s.db.WithContext(ctx).First(&state, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.StreakState{UserID: userID}, nil
	}
	if err != nil {
		return models.StreakState{}, err
	}
	return state, nil
}

// History pages through the user's check-ins, newest first.
func (s *CheckInService) History(ctx context.Context, userID uint, limit, offset int) ([]models.CheckIn, int64, error) {
	limit, offset = ClampWindow(limit, offset)

	mine := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.CheckIn{}).Where("user_id = ?", userID)
	}
	var total int64
	if err := mine().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	items := []models.CheckIn{}
	if err := mine().Preload("ContentItem").
		Order("check_in_date DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ClampWindow bounds a history limit/offset pair to the values History applies.
func ClampWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func truncateRunes(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n])
}
