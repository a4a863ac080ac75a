package ads

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/auth"
)

var ErrInvalidInput = errors.New("invalid input")

type Service struct {
	log        *zap.Logger
	repository Repository
	guard      *auth.Guard
}

func NewService(log *zap.Logger, repo Repository, guard *auth.Guard) *Service {
	return &Service{
		log:        log,
		repository: repo,
		guard:      guard,
	}
}

type AdInput struct {
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Address      string       `json:"address"`
	Province     string       `json:"province"`
	City         string       `json:"city"`
	Lat          *float64     `json:"lat"`
	Lng          *float64     `json:"lng"`
	Images       []string     `json:"images"`
	Phone        string       `json:"phone"`
	UserNotes    *string      `json:"userNotes"`
	Price        *float64     `json:"price"`
	Area         *float64     `json:"area"`
	Rooms        *int         `json:"rooms"`
	PropertyType PropertyType `json:"propertyType"`
}

// Create registers a new ad for ownerID. New ads always start pending; only
// moderation moves them to approved.
func (s *Service) Create(ctx context.Context, ownerID uint, in AdInput) (*Ad, error) {
	if err := validateAdInput(&in); err != nil {
		return nil, err
	}

	propertyType := in.PropertyType
	if propertyType == "" {
		propertyType = PropertyApartment
	}

	ad := &Ad{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Address:      strings.TrimSpace(in.Address),
		Province:     strings.TrimSpace(in.Province),
		City:         strings.TrimSpace(in.City),
		Lat:          *in.Lat,
		Lng:          *in.Lng,
		Images:       in.Images,
		Phone:        strings.TrimSpace(in.Phone),
		UserNotes:    in.UserNotes,
		Price:        in.Price,
		Area:         in.Area,
		Rooms:        in.Rooms,
		PropertyType: propertyType,
		Status:       StatusPending,
		UserID:       ownerID,
	}

	if err := s.repository.Create(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// Update merges the provided fields into an existing ad. Owner or admin only.
func (s *Service) Update(ctx context.Context, claims *auth.Claims, id uint, in AdInput) (*Ad, error) {
	if err := s.guard.CanMutateAd(ctx, claims, id); err != nil {
		return nil, err
	}

	ad, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != "" {
		ad.Title = strings.TrimSpace(in.Title)
	}
	if in.Description != "" {
		ad.Description = strings.TrimSpace(in.Description)
	}
	if in.Address != "" {
		ad.Address = strings.TrimSpace(in.Address)
	}
	if in.Province != "" {
		ad.Province = strings.TrimSpace(in.Province)
	}
	if in.City != "" {
		ad.City = strings.TrimSpace(in.City)
	}
	if in.Lat != nil {
		ad.Lat = *in.Lat
	}
	if in.Lng != nil {
		ad.Lng = *in.Lng
	}
	if in.Images != nil {
		ad.Images = in.Images
	}
	if in.Phone != "" {
		ad.Phone = strings.TrimSpace(in.Phone)
	}
	if in.Price != nil {
		ad.Price = in.Price
	}
	if in.Area != nil {
		ad.Area = in.Area
	}
	if in.Rooms != nil {
		ad.Rooms = in.Rooms
	}
	if in.PropertyType != "" {
		ad.PropertyType = in.PropertyType
	}

	if err := s.repository.Update(ctx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *Service) Delete(ctx context.Context, claims *auth.Claims, id uint) error {
	if err := s.guard.CanMutateAd(ctx, claims, id); err != nil {
		return err
	}
	return s.repository.Delete(ctx, id)
}

// Get returns one ad and counts the view.
func (s *Service) Get(ctx context.Context, id uint) (*Ad, error) {
	ad, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repository.IncrementViewCount(ctx, id); err != nil {
		s.log.Warn("failed to count view", zap.Uint("ad_id", id), zap.Error(err))
	} else {
		ad.ViewCount++
	}
	return ad, nil
}

func (s *Service) ListApproved(ctx context.Context, limit, offset int) ([]Ad, error) {
	return s.repository.FindApproved(ctx, limit, offset)
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]Ad, error) {
	return s.repository.FindAll(ctx, limit, offset)
}

func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]Ad, error) {
	return s.repository.Search(ctx, query, limit, offset)
}

func (s *Service) ListByProvince(ctx context.Context, province string, limit, offset int) ([]Ad, error) {
	return s.repository.FindByProvince(ctx, province, limit, offset)
}

func (s *Service) ListByPropertyType(ctx context.Context, propertyType PropertyType, limit, offset int) ([]Ad, error) {
	return s.repository.FindByPropertyType(ctx, propertyType, limit, offset)
}

func (s *Service) MyAds(ctx context.Context, userID uint) ([]Ad, error) {
	return s.repository.FindByUserID(ctx, userID)
}

// Moderate sets an ad's status, admin only (enforced by the route).
func (s *Service) Moderate(ctx context.Context, id uint, status Status, adminNotes *string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status must be pending, approved or rejected", ErrInvalidInput)
	}
	return s.repository.UpdateStatus(ctx, id, status, adminNotes)
}

func (s *Service) Rate(ctx context.Context, id uint, stars int) error {
	if stars < 1 || stars > 5 {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	return s.repository.UpdateRating(ctx, id, stars)
}

func (s *Service) RecordClick(ctx context.Context, id uint) error {
	return s.repository.IncrementClickCount(ctx, id)
}

func (s *Service) RecordView(ctx context.Context, id uint) error {
	return s.repository.IncrementViewCount(ctx, id)
}

func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repository.GetStats(ctx)
}

// DashboardFor aggregates the owner's ads in memory, keeping the most recent
// five for the summary panel.
func (s *Service) DashboardFor(ctx context.Context, userID uint) (*Dashboard, error) {
	all, err := s.repository.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := &Dashboard{TotalAds: len(all), RecentAds: []Ad{}}
	for _, ad := range all {
		switch ad.Status {
		case StatusApproved:
			d.ApprovedAds++
		case StatusPending:
			d.PendingAds++
		case StatusRejected:
			d.RejectedAds++
		}
		d.TotalViews += ad.ViewCount
		d.TotalClicks += ad.ClickCount
	}
	if len(all) > 5 {
		d.RecentAds = all[:5]
	} else {
		d.RecentAds = all
	}
	return d, nil
}

func validateAdInput(in *AdInput) error {
	if in.Title == "" || in.Description == "" || in.Address == "" || in.Province == "" ||
		in.City == "" || in.Phone == "" {
		return fmt.Errorf("%w: all required fields must be filled", ErrInvalidInput)
	}
	if in.Lat == nil || in.Lng == nil {
		return fmt.Errorf("%w: valid coordinates are required", ErrInvalidInput)
	}
	return nil
}
