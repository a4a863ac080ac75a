package auth

import (
	"context"
)

// AdFinder is the slice of the ad store the guard needs for ownership and
// referential checks.
type AdFinder interface {
	FindAdOwner(ctx context.Context, adID uint) (uint, error)
	CountAdsByUser(ctx context.Context, userID uint) (int64, error)
}

// Guard makes allow/deny decisions for privileged operations. It never
// mutates state; server-side authorization lives here and nowhere else.
type Guard struct {
	ads AdFinder
}

func NewGuard(ads AdFinder) *Guard {
	return &Guard{ads: ads}
}

func (g *Guard) RequireAdmin(claims *Claims) error {
	if claims == nil || claims.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// CanMutateAd allows the ad's owner and any admin.
func (g *Guard) CanMutateAd(ctx context.Context, claims *Claims, adID uint) error {
	if claims == nil {
		return ErrForbidden
	}
	if claims.Role == RoleAdmin {
		return nil
	}

	ownerID, err := g.ads.FindAdOwner(ctx, adID)
	if err != nil {
		return err
	}
	if ownerID != claims.UserID {
		return ErrForbidden
	}
	return nil
}

// CanDeleteUser allows an admin to delete a user, but only once the target no
// longer owns any ads.
func (g *Guard) CanDeleteUser(ctx context.Context, claims *Claims, targetID uint) error {
	if err := g.RequireAdmin(claims); err != nil {
		return err
	}

	count, err := g.ads.CountAdsByUser(ctx, targetID)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUserHasAds
	}
	return nil
}
