package usecase

import (
	"context"
	"log/slog"

	"github.com/samber/lo"
	"github.com/shandysiswandi/quill/internal/pkg/goerror"
)

// ProfilePermissions returns the caller's implicit casbin permissions as
// object -> actions.
func (s *Usecase) ProfilePermissions(ctx context.Context) (map[string][]string, error) {
	ctx, span := s.startSpan(ctx, "ProfilePermissions")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	policies, err := s.enforcer.GetImplicitPermissionsForUser(subject(clm.UserID))
	if err != nil {
		slog.ErrorContext(ctx, "failed to get implicit permissions", "user_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	permissions := make(map[string][]string)
	for _, policy := range policies {
		if len(policy) < 3 {
			continue
		}
		permissions[policy[1]] = append(permissions[policy[1]], policy[2])
	}

	return lo.MapValues(permissions, func(acts []string, _ string) []string {
		return lo.Uniq(acts)
	}), nil
}
