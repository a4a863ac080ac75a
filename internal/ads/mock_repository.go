package ads

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

// mockRepository is an in-memory Repository used by the test suite.
type mockRepository struct {
	mu     sync.Mutex
	ads    map[uint]*Ad
	nextID uint
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		ads:    make(map[uint]*Ad),
		nextID: 1,
	}
}

func (m *mockRepository) Create(_ context.Context, ad *Ad) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad.ID = m.nextID
	m.nextID++
	now := time.Now()
	ad.CreatedAt = now
	ad.UpdatedAt = now

	stored := *ad
	m.ads[ad.ID] = &stored
	return nil
}

func (m *mockRepository) FindByID(_ context.Context, id uint) (*Ad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[id]
	if !ok {
		return nil, ErrAdNotFound
	}
	copied := *ad
	return &copied, nil
}

func (m *mockRepository) FindApproved(_ context.Context, limit, offset int) ([]Ad, error) {
	return m.filter(limit, offset, func(ad *Ad) bool {
		return ad.Status == StatusApproved
	}), nil
}

func (m *mockRepository) FindAll(_ context.Context, limit, offset int) ([]Ad, error) {
	return m.filter(limit, offset, func(*Ad) bool { return true }), nil
}

func (m *mockRepository) FindByUserID(_ context.Context, userID uint) ([]Ad, error) {
	return m.filter(0, 0, func(ad *Ad) bool {
		return ad.UserID == userID
	}), nil
}

func (m *mockRepository) Search(_ context.Context, query string, limit, offset int) ([]Ad, error) {
	q := strings.ToLower(query)
	return m.filter(limit, offset, func(ad *Ad) bool {
		if ad.Status != StatusApproved {
			return false
		}
		for _, field := range []string{ad.Title, ad.Description, ad.Address, ad.City} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}), nil
}

func (m *mockRepository) FindByProvince(_ context.Context, province string, limit, offset int) ([]Ad, error) {
	return m.filter(limit, offset, func(ad *Ad) bool {
		return ad.Status == StatusApproved && ad.Province == province
	}), nil
}

func (m *mockRepository) FindByPropertyType(_ context.Context, propertyType PropertyType, limit, offset int) ([]Ad, error) {
	return m.filter(limit, offset, func(ad *Ad) bool {
		return ad.Status == StatusApproved && ad.PropertyType == propertyType
	}), nil
}

func (m *mockRepository) Update(_ context.Context, ad *Ad) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ads[ad.ID]; !ok {
		return ErrAdNotFound
	}
	ad.UpdatedAt = time.Now()
	stored := *ad
	m.ads[ad.ID] = &stored
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id uint, status Status, adminNotes *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[id]
	if !ok {
		return ErrAdNotFound
	}
	ad.Status = status
	if adminNotes != nil {
		notes := *adminNotes
		ad.AdminNotes = &notes
	}
	return nil
}

func (m *mockRepository) UpdateRating(_ context.Context, id uint, stars int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[id]
	if !ok {
		return ErrAdNotFound
	}
	ad.Rating = stars
	return nil
}

func (m *mockRepository) IncrementViewCount(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[id]
	if !ok {
		return ErrAdNotFound
	}
	ad.ViewCount++
	return nil
}

func (m *mockRepository) IncrementClickCount(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ad, ok := m.ads[id]
	if !ok {
		return ErrAdNotFound
	}
	ad.ClickCount++
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.ads[id]; !ok {
		return ErrAdNotFound
	}
	delete(m.ads, id)
	return nil
}

func (m *mockRepository) GetStats(_ context.Context) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &Stats{}
	for _, ad := range m.ads {
		stats.TotalAds++
		switch ad.Status {
		case StatusApproved:
			stats.ApprovedAds++
		case StatusPending:
			stats.PendingAds++
		case StatusRejected:
			stats.RejectedAds++
		}
		stats.TotalViews += ad.ViewCount
		stats.TotalClicks += ad.ClickCount
	}
	return stats, nil
}

func (m *mockRepository) FindAdOwner(ctx context.Context, adID uint) (uint, error) {
	ad, err := m.FindByID(ctx, adID)
	if err != nil {
		return 0, err
	}
	return ad.UserID, nil
}

func (m *mockRepository) CountAdsByUser(_ context.Context, userID uint) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var count int64
	for _, ad := range m.ads {
		if ad.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (m *mockRepository) filter(limit, offset int, keep func(*Ad) bool) []Ad {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Ad, 0)
	for _, ad := range m.ads {
		if keep(ad) {
			out = append(out, *ad)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if offset > 0 {
		if offset >= len(out) {
			return []Ad{}
		}
		out = out[offset:]
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}
