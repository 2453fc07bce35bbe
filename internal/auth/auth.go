package auth

import (
	"github.com/homwrkk/IUI/internal/config"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
)

// Configure sets the WorkOS API key used by the login handlers.
func Configure(cfg *config.Config) {
	usermanagement.SetAPIKey(cfg.WorkOSApiKey)
}
