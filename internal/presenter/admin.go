package presenter

import (
	"context"

	"github.com/rpggio/crowdfund/internal/identity"
)

// AdminView gates the admin area.
type AdminView struct {
	LoginPrompt bool
	Principal   string
}

// Admin resolves the admin area for ctx's caller.
func Admin(ctx context.Context) AdminView {
	caller, ok := identity.Authenticated(ctx)
	if !ok {
		return AdminView{LoginPrompt: true}
	}
	return AdminView{Principal: caller.Principal}
}
