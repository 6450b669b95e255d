package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/dailystreak/models"
	"github.com/cppla/dailystreak/utils"
)

// ContentCachePrefix namespaces every cached content calendar entry.
const ContentCachePrefix = "cache:content:"

// ContentService serves the content calendar to users and lets admins maintain it.
type ContentService struct {
	db          *gorm.DB
	cal         *Calendar
	cache       *utils.Cache
	log         *zap.Logger
	defaultDays int
	maxDays     int
}

// CalendarWindow bounds the calendar query.
type CalendarWindow struct {
	DefaultDays int
	MaxDays     int
}

// NewContentService creates a content service; cache may be nil.
func NewContentService(db *gorm.DB, cal *Calendar, cache *utils.Cache, logger *zap.Logger, window CalendarWindow) *ContentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window.MaxDays <= 0 {
		window.MaxDays = 365
	}
	if window.DefaultDays <= 0 || window.DefaultDays > window.MaxDays {
		window.DefaultDays = min(7, window.MaxDays)
	}
	return &ContentService{
		db:          db,
		cal:         cal,
		cache:       cache,
		log:         logger,
		defaultDays: window.DefaultDays,
		maxDays:     window.MaxDays,
	}
}

// DayEntry is one calendar day as seen by a user.
type DayEntry struct {
	Date         string              `json:"date"`
	ContentItem  *models.ContentItem `json:"content_item"`
	HasCheckedIn bool                `json:"has_checked_in"`
}

// TodayContent returns today's active item (nil when nothing is scheduled) and whether the user checked in.
func (s *ContentService) TodayContent(ctx context.Context, userID uint) (*DayEntry, error) {
	return s.day(ctx, userID, s.cal.Today())
}

// ContentByDate is TodayContent for an arbitrary date.
func (s *ContentService) ContentByDate(ctx context.Context, userID uint, raw string) (*DayEntry, error) {
	date, err := ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return s.day(ctx, userID, date)
}

func (s *ContentService) day(ctx context.Context, userID uint, date string) (*DayEntry, error) {
	item, err := s.activeItem(ctx, date)
	if err != nil {
		return nil, err
	}
	done, err := checkedIn(s.db.WithContext(ctx), userID, date)
	if err != nil {
		return nil, err
	}
	return &DayEntry{Date: date, ContentItem: item, HasCheckedIn: done}, nil
}

// activeItem looks up the active item for a date through the cache. Misses are not cached.
func (s *ContentService) activeItem(ctx context.Context, date string) (*models.ContentItem, error) {
	key := ContentCachePrefix + "date:" + date
	var cached models.ContentItem
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	var item models.ContentItem
	err := s.db.WithContext(ctx).Where("date = ? AND is_active = ?", date, true).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cache.SetJSON(ctx, key, item, 0)
	return &item, nil
}

// Calendar returns the last days calendar days ending today, newest first.
// days is clamped to [1, MaxDays]; zero or negative selects the default window.
func (s *ContentService) Calendar(ctx context.Context, userID uint, days int) ([]DayEntry, error) {
	days = s.clampDays(days)
	today := s.cal.Today()
	start := AddDays(today, -(days - 1))

	var items []models.ContentItem
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ? AND is_active = ?", start, today, true).
		Find(&items).Error; err != nil {
		return nil, err
	}
	byDate := make(map[string]*models.ContentItem, len(items))
	for i := range items {
		byDate[items[i].Date] = &items[i]
	}

	var checked []string
	if err := s.db.WithContext(ctx).Model(&models.CheckIn{}).
		Where("user_id = ? AND check_in_date >= ? AND check_in_date <= ?", userID, start, today).
		Pluck("check_in_date", &checked).Error; err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(checked))
	for _, d := range checked {
		done[d] = true
	}

	entries := make([]DayEntry, 0, days)
	for i := 0; i < days; i++ {
		d := AddDays(today, -i)
		entries = append(entries, DayEntry{Date: d, ContentItem: byDate[d], HasCheckedIn: done[d]})
	}
	return entries, nil
}

func (s *ContentService) clampDays(days int) int {
	if days <= 0 {
		return s.defaultDays
	}
	if days > s.maxDays {
		return s.maxDays
	}
	return days
}

// ContentInput is a create or partial-update request for a content item.
// Nil fields are left unchanged on update.
type ContentInput struct {
	Date        *string `json:"date"`
	ContentType *string `json:"content_type"`
	Title       *string `json:"title"`
	Message     *string `json:"message"`
	MediaURL    *string `json:"media_url"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

// ListContent pages through the calendar, newest date first.
func (s *ContentService) ListContent(ctx context.Context, page, pageSize int, includeInactive bool) ([]models.ContentItem, int64, error) {
	scope := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&models.ContentItem{})
		if !includeInactive {
			q = q.Where("is_active = ?", true)
		}
		return q
	}

	var total int64
	if err := scope().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := []models.ContentItem{}
	if err := scope().Order("date DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CreateContent schedules a new item. Date, type, title and message are required.
func (s *ContentService) CreateContent(ctx context.Context, in ContentInput) (*models.ContentItem, error) {
	if in.Date == nil || in.ContentType == nil || in.Title == nil || in.Message == nil {
		return nil, fmt.Errorf("%w: date, content_type, title and message are required", ErrInvalidContent)
	}
	item := models.ContentItem{IsActive: true}
	if err := applyContent(&item, in); err != nil {
		return nil, err
	}
	if err := s.ensureDateFree(ctx, item.Date, 0); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%s: %w", item.Date, ErrDuplicateDate)
		}
		return nil, err
	}
	s.invalidate(ctx)
	s.log.Info("content scheduled", zap.Uint("content_id", item.ID), zap.String("date", item.Date))
	return &item, nil
}

// UpdateContent applies a partial update to an existing item.
func (s *ContentService) UpdateContent(ctx context.Context, id uint, in ContentInput) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := s.db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("content %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if err := applyContent(&item, in); err != nil {
		return nil, err
	}
	if err := s.ensureDateFree(ctx, item.Date, item.ID); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("%s: %w", item.Date, ErrDuplicateDate)
		}
		return nil, err
	}
	s.invalidate(ctx)
	return &item, nil
}

// DeactivateContent soft-disables an item; past check-ins keep referencing it.
func (s *ContentService) DeactivateContent(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.ContentItem{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.ContentItem{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("content %d: %w", id, ErrNotFound)
		}
	}
	s.invalidate(ctx)
	return nil
}

func (s *ContentService) ensureDateFree(ctx context.Context, date string, selfID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.ContentItem{}).
		Where("date = ? AND id <> ?", date, selfID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%s: %w", date, ErrDuplicateDate)
	}
	return nil
}

func (s *ContentService) invalidate(ctx context.Context) {
	s.cache.InvalidateByPrefix(ctx, ContentCachePrefix)
}

// applyContent validates and copies the non-nil fields of in onto item.
func applyContent(item *models.ContentItem, in ContentInput) error {
	if in.Date != nil {
		date, err := ParseDate(*in.Date)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidContent, err)
		}
		item.Date = date
	}
	if in.ContentType != nil {
		ct := models.ContentType(strings.ToLower(strings.TrimSpace(*in.ContentType)))
		if !ct.Valid() {
			return fmt.Errorf("%w: unknown content_type %q", ErrInvalidContent, *in.ContentType)
		}
		item.ContentType = ct
	}
	if in.Title != nil {
		title := utils.SanitizePlain(*in.Title)
		if title == "" || len([]rune(title)) > 255 {
			return fmt.Errorf("%w: title must be 1-255 characters", ErrInvalidContent)
		}
		item.Title = title
	}
	if in.Message != nil {
		msg := utils.Sanitize(*in.Message)
		if msg == "" {
			return fmt.Errorf("%w: message cannot be empty", ErrInvalidContent)
		}
		item.Message = msg
	}
	if in.MediaURL != nil {
		raw := strings.TrimSpace(*in.MediaURL)
		if raw != "" {
			u, err := url.Parse(raw)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
				return fmt.Errorf("%w: media_url must be an http(s) URL", ErrInvalidContent)
			}
		}
		item.MediaURL = raw
	}
	if in.Category != nil {
		cat := utils.SanitizePlain(*in.Category)
		if len([]rune(cat)) > 64 {
			return fmt.Errorf("%w: category is too long", ErrInvalidContent)
		}
		item.Category = cat
	}
	if in.IsActive != nil {
		item.IsActive = *in.IsActive
	}
	return nil
}
