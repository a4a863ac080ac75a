package ads

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faridz/amlak/internal/auth"
)

func newTestService(t *testing.T) (*Service, *mockRepository) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)

	repo := newMockRepository()
	guard := auth.NewGuard(repo)
	return NewService(logger, repo, guard), repo
}

func floatPtr(v float64) *float64 { return &v }

func validInput() AdInput {
	return AdInput{
		Title:       "Two-bedroom apartment",
		Description: "Bright apartment near the park",
		Address:     "12 Valiasr St",
		Province:    "Tehran",
		City:        "Tehran",
		Lat:         floatPtr(35.7),
		Lng:         floatPtr(51.4),
		Phone:       "09121234567",
	}
}

func createTestAd(t *testing.T, svc *Service, ownerID uint) *Ad {
	ad, err := svc.Create(context.Background(), ownerID, validInput())
	require.NoError(t, err)
	return ad
}

func userClaims(id uint) *auth.Claims {
	return &auth.Claims{UserID: id, Role: auth.RoleUser}
}

func adminClaims() *auth.Claims {
	return &auth.Claims{UserID: 999, Role: auth.RoleAdmin}
}

func TestService_Create(t *testing.T) {
	t.Run("new ads start pending", func(t *testing.T) {
		svc, _ := newTestService(t)

		ad, err := svc.Create(context.Background(), 1, validInput())
		require.NoError(t, err)
		assert.Equal(t, StatusPending, ad.Status)
		assert.Equal(t, uint(1), ad.UserID)
		assert.Equal(t, PropertyApartment, ad.PropertyType)
		assert.NotZero(t, ad.ID)
	})

	t.Run("persisted as pending", func(t *testing.T) {
		svc, repo := newTestService(t)

		ad := createTestAd(t, svc, 1)
		stored, err := repo.FindByID(context.Background(), ad.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusPending, stored.Status)
	})

	t.Run("validation failures", func(t *testing.T) {
		svc, _ := newTestService(t)

		tests := []struct {
			name   string
			mutate func(*AdInput)
		}{
			{"missing title", func(in *AdInput) { in.Title = "" }},
			{"missing description", func(in *AdInput) { in.Description = "" }},
			{"missing phone", func(in *AdInput) { in.Phone = "" }},
			{"missing coordinates", func(in *AdInput) { in.Lat = nil }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := validInput()
				tt.mutate(&in)

				_, err := svc.Create(context.Background(), 1, in)
				assert.ErrorIs(t, err, ErrInvalidInput)
			})
		}
	})
}

func TestService_Update(t *testing.T) {
	t.Run("owner can update", func(t *testing.T) {
		svc, _ := newTestService(t)
		ad := createTestAd(t, svc, 1)

		updated, err := svc.Update(context.Background(), userClaims(1), ad.ID, AdInput{
			Title: "Renovated two-bedroom apartment",
			Price: floatPtr(4_500_000_000),
		})
		require.NoError(t, err)
		assert.Equal(t, "Renovated two-bedroom apartment", updated.Title)
		require.NotNil(t, updated.Price)
		assert.Equal(t, 4_500_000_000.0, *updated.Price)
		// untouched fields survive the merge
		assert.Equal(t, "Tehran", updated.Province)
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		svc, _ := newTestService(t)
		ad := createTestAd(t, svc, 1)

		_, err := svc.Update(context.Background(), userClaims(2), ad.ID, AdInput{Title: "hijack"})
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("admin can update any ad", func(t *testing.T) {
		svc, _ := newTestService(t)
		ad := createTestAd(t, svc, 1)

		updated, err := svc.Update(context.Background(), adminClaims(), ad.ID, AdInput{Title: "Moderated title"})
		require.NoError(t, err)
		assert.Equal(t, "Moderated title", updated.Title)
	})

	t.Run("unknown ad", func(t *testing.T) {
		svc, _ := newTestService(t)

		_, err := svc.Update(context.Background(), adminClaims(), 404, AdInput{Title: "nope"})
		assert.ErrorIs(t, err, ErrAdNotFound)
	})
}

func TestService_Delete(t *testing.T) {
	t.Run("owner can delete", func(t *testing.T) {
		svc, repo := newTestService(t)
		ad := createTestAd(t, svc, 1)

		require.NoError(t, svc.Delete(context.Background(), userClaims(1), ad.ID))

		_, err := repo.FindByID(context.Background(), ad.ID)
		assert.ErrorIs(t, err, ErrAdNotFound)
	})

	t.Run("non-owner is refused", func(t *testing.T) {
		svc, repo := newTestService(t)
		ad := createTestAd(t, svc, 1)

		err := svc.Delete(context.Background(), userClaims(2), ad.ID)
		assert.ErrorIs(t, err, auth.ErrForbidden)

		_, err = repo.FindByID(context.Background(), ad.ID)
		assert.NoError(t, err)
	})

	t.Run("admin can delete any ad", func(t *testing.T) {
		svc, _ := newTestService(t)
		ad := createTestAd(t, svc, 1)

		assert.NoError(t, svc.Delete(context.Background(), adminClaims(), ad.ID))
	})
}

func TestService_Moderate(t *testing.T) {
	svc, repo := newTestService(t)
	ad := createTestAd(t, svc, 1)

	t.Run("approve", func(t *testing.T) {
		notes := "looks good"
		require.NoError(t, svc.Moderate(context.Background(), ad.ID, StatusApproved, &notes))

		stored, err := repo.FindByID(context.Background(), ad.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusApproved, stored.Status)
		require.NotNil(t, stored.AdminNotes)
		assert.Equal(t, "looks good", *stored.AdminNotes)
	})

	t.Run("invalid status", func(t *testing.T) {
		err := svc.Moderate(context.Background(), ad.ID, Status("published"), nil)
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown ad", func(t *testing.T) {
		err := svc.Moderate(context.Background(), 404, StatusRejected, nil)
		assert.ErrorIs(t, err, ErrAdNotFound)
	})
}

func TestService_Rate(t *testing.T) {
	svc, repo := newTestService(t)
	ad := createTestAd(t, svc, 1)

	t.Run("valid rating", func(t *testing.T) {
		require.NoError(t, svc.Rate(context.Background(), ad.ID, 4))

		stored, err := repo.FindByID(context.Background(), ad.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, stored.Rating)
	})

	t.Run("out of range", func(t *testing.T) {
		assert.ErrorIs(t, svc.Rate(context.Background(), ad.ID, 0), ErrInvalidInput)
		assert.ErrorIs(t, svc.Rate(context.Background(), ad.ID, 6), ErrInvalidInput)
	})
}

func TestService_Listings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	approved := createTestAd(t, svc, 1)
	require.NoError(t, svc.Moderate(ctx, approved.ID, StatusApproved, nil))
	createTestAd(t, svc, 1) // stays pending

	t.Run("only approved ads are public", func(t *testing.T) {
		ads, err := svc.ListApproved(ctx, 20, 0)
		require.NoError(t, err)
		require.Len(t, ads, 1)
		assert.Equal(t, approved.ID, ads[0].ID)
	})

	t.Run("admin listing sees everything", func(t *testing.T) {
		ads, err := svc.ListAll(ctx, 20, 0)
		require.NoError(t, err)
		assert.Len(t, ads, 2)
	})

	t.Run("search only matches approved ads", func(t *testing.T) {
		ads, err := svc.Search(ctx, "apartment", 20, 0)
		require.NoError(t, err)
		assert.Len(t, ads, 1)
	})

	t.Run("province filter", func(t *testing.T) {
		ads, err := svc.ListByProvince(ctx, "Tehran", 20, 0)
		require.NoError(t, err)
		assert.Len(t, ads, 1)

		ads, err = svc.ListByProvince(ctx, "Fars", 20, 0)
		require.NoError(t, err)
		assert.Len(t, ads, 0)
	})
}

func TestService_GetCountsView(t *testing.T) {
	svc, repo := newTestService(t)
	ad := createTestAd(t, svc, 1)

	first, err := svc.Get(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ViewCount)

	second, err := svc.Get(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ViewCount)

	stored, err := repo.FindByID(context.Background(), ad.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.ViewCount)
}

func TestService_DashboardFor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first := createTestAd(t, svc, 7)
	require.NoError(t, svc.Moderate(ctx, first.ID, StatusApproved, nil))
	second := createTestAd(t, svc, 7)
	require.NoError(t, svc.Moderate(ctx, second.ID, StatusRejected, nil))
	createTestAd(t, svc, 7)
	createTestAd(t, svc, 8) // someone else's ad

	require.NoError(t, svc.RecordClick(ctx, first.ID))
	require.NoError(t, svc.RecordView(ctx, first.ID))

	d, err := svc.DashboardFor(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, d.TotalAds)
	assert.Equal(t, 1, d.ApprovedAds)
	assert.Equal(t, 1, d.PendingAds)
	assert.Equal(t, 1, d.RejectedAds)
	assert.Equal(t, int64(1), d.TotalViews)
	assert.Equal(t, int64(1), d.TotalClicks)
	assert.Len(t, d.RecentAds, 3)
}

func TestService_GetStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	approved := createTestAd(t, svc, 1)
	require.NoError(t, svc.Moderate(ctx, approved.ID, StatusApproved, nil))
	createTestAd(t, svc, 2)
	require.NoError(t, svc.RecordView(ctx, approved.ID))

	stats, err := svc.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalAds)
	assert.Equal(t, int64(1), stats.ApprovedAds)
	assert.Equal(t, int64(1), stats.PendingAds)
	assert.Equal(t, int64(1), stats.TotalViews)
}
