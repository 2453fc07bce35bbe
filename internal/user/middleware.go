package user

import (
	"context"
	"net/http"

	"github.com/homwrkk/IUI/internal/auth"
	"github.com/homwrkk/IUI/internal/logger"
	"github.com/homwrkk/IUI/internal/logging"
	"github.com/homwrkk/IUI/internal/models"
)

type dbContextKey string

const (
	dbUserContextKey dbContextKey = "db_user"
)

func GetDBUserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(dbUserContextKey).(*models.User)
	return user, ok
}

// WithDBUser stores u in ctx the way UserMiddleware does.
func WithDBUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, dbUserContextKey, u)
}

// UserMiddleware resolves the authenticated identity to a database user. It must run after
// auth.Middleware.RequireAuth.
func UserMiddleware(userService Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authUser, ok := auth.GetUserFromContext(r.Context())
			if !ok {
				http.Error(w, "Unauthorized: User not found in context", http.StatusUnauthorized)
				return
			}

			dbUser, err := userService.GetOrCreate(
				r.Context(),
				authUser.ID,
				authUser.Email,
				authUser.FirstName,
				authUser.LastName,
			)
			if err != nil {
				logging.EnrichError(r.Context(), err, "user_lookup")
				logger.Log.Error("failed to get or create user", "user_id", authUser.ID, "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			logging.EnrichUser(r.Context(), dbUser.ID, dbUser.Email)
			next.ServeHTTP(w, r.WithContext(WithDBUser(r.Context(), dbUser)))
		})
	}
}
