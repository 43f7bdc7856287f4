package service

import (
	"context"
	"log/slog"
	"slices"

	"thoughtwave/internal/middleware"
	"thoughtwave/internal/models"
	"thoughtwave/internal/observability"
	"thoughtwave/internal/repository"
)

// ReconcileReport counts the repairs made, or that would be made in a dry run.
type ReconcileReport struct {
	DryRun                 bool `json:"dryRun"`
	UsersScanned           int  `json:"usersScanned"`
	ThoughtsScanned        int  `json:"thoughtsScanned"`
	OrphanThoughtsDeleted  int  `json:"orphanThoughtsDeleted"`
	DanglingFriendsRemoved int  `json:"danglingFriendsRemoved"`
	DanglingThoughtRefs    int  `json:"danglingThoughtRefsRemoved"`
	ThoughtsRelinked       int  `json:"thoughtsRelinked"`
	UsersUpdated           int  `json:"usersUpdated"`
}

// Reconciler repairs references left inconsistent by partially failed
// multi-document operations and by user deletes, which do not touch friend lists.
type Reconciler struct {
	users    repository.UserRepository
	thoughts repository.ThoughtRepository
}

// NewReconciler returns a Reconciler over the given repositories.
func NewReconciler(users repository.UserRepository, thoughts repository.ThoughtRepository) *Reconciler {
	return &Reconciler{users: users, thoughts: thoughts}
}

// Run scans every thought and user once. It deletes thoughts whose owner is
// gone, pulls friend and thought ids that no longer resolve (or point at a
// thought owned by someone else), and pushes owned thoughts missing from the
// owner's list. Friend duplicates are kept.
//
// Thoughts are listed before users, and anything missing from a listing is
// re-read before it is repaired, so documents created during the scan are
// left alone. Repairs are single-list pushes and pulls, never whole-user
// writes, so concurrent edits to the same user survive.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*ReconcileReport, error) {
	span, ctx := observability.NewSpan(ctx, "Reconciler.Run")
	defer span.End()

	thoughts, err := r.thoughts.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	users, err := r.users.List(ctx)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	report := &ReconcileReport{DryRun: dryRun, UsersScanned: len(users), ThoughtsScanned: len(thoughts)}
	scan := &reconcileScan{
		r:          r,
		userExists: make(map[string]bool, len(users)),
		ownerOf:    make(map[string]string, len(thoughts)),
	}
	for _, u := range users {
		scan.userExists[u.ID] = true
	}

	ownedBy := make(map[string][]string)
	for _, t := range thoughts {
		exists, err := scan.userAlive(ctx, t.UserID)
		if err != nil {
			span.SetError(err)
			return report, err
		}
		if !exists {
			report.OrphanThoughtsDeleted++
			if !dryRun {
				if _, err := r.thoughts.Delete(ctx, t.ID); err != nil && !models.IsNotFound(err) {
					span.SetError(err)
					return report, err
				}
				observability.ReferenceRepairs.WithLabelValues("orphan_thought").Inc()
			}
			continue
		}
		scan.ownerOf[t.ID] = t.UserID
		ownedBy[t.UserID] = append(ownedBy[t.UserID], t.ID)
	}

	for i := range users {
		changed, err := r.repairUser(ctx, scan, &users[i], ownedBy[users[i].ID], dryRun, report)
		if err != nil {
			span.SetError(err)
			return report, err
		}
		if changed {
			report.UsersUpdated++
		}
	}

	middleware.Logger.InfoContext(ctx, "reconciliation finished",
		slog.Bool("dry_run", report.DryRun),
		slog.Int("orphan_thoughts", report.OrphanThoughtsDeleted),
		slog.Int("dangling_friends", report.DanglingFriendsRemoved),
		slog.Int("dangling_thought_refs", report.DanglingThoughtRefs),
		slog.Int("relinked", report.ThoughtsRelinked),
		slog.Int("users_updated", report.UsersUpdated),
	)
	return report, nil
}

// reconcileScan memoizes live lookups for ids missing from the listings.
type reconcileScan struct {
	r          *Reconciler
	userExists map[string]bool
	ownerOf    map[string]string
}

func (s *reconcileScan) userAlive(ctx context.Context, id string) (bool, error) {
	if exists, ok := s.userExists[id]; ok {
		return exists, nil
	}
	_, err := s.r.users.GetByID(ctx, id)
	if err != nil && !models.IsNotFound(err) {
		return false, err
	}
	s.userExists[id] = err == nil
	return err == nil, nil
}

func (s *reconcileScan) thoughtOwner(ctx context.Context, id string) (string, error) {
	if owner, ok := s.ownerOf[id]; ok {
		return owner, nil
	}
	t, err := s.r.thoughts.GetByID(ctx, id)
	if err != nil {
		if !models.IsNotFound(err) {
			return "", err
		}
		s.ownerOf[id] = ""
		return "", nil
	}
	s.ownerOf[id] = t.UserID
	return t.UserID, nil
}

// repairUser fixes one user's reference lists and reports whether anything
// needed repair.
func (r *Reconciler) repairUser(ctx context.Context, scan *reconcileScan, u *models.User, owned []string, dryRun bool, report *ReconcileReport) (bool, error) {
	changed := false

	pulledFriends := make(map[string]bool)
	for _, id := range u.Friends {
		alive, err := scan.userAlive(ctx, id)
		if err != nil {
			return changed, err
		}
		if alive {
			continue
		}
		report.DanglingFriendsRemoved++
		changed = true
		if dryRun || pulledFriends[id] {
			continue
		}
		pulledFriends[id] = true
		if err := r.users.PullFriend(ctx, u.ID, id); err != nil {
			return changed, ignoreGone(err)
		}
		observability.ReferenceRepairs.WithLabelValues("dangling_friend").Inc()
	}

	linked := make(map[string]int, len(u.Thoughts))
	for _, id := range u.Thoughts {
		linked[id]++
	}
	for _, id := range unique(u.Thoughts) {
		owner, err := scan.thoughtOwner(ctx, id)
		if err != nil {
			return changed, err
		}
		switch {
		case owner != u.ID:
			report.DanglingThoughtRefs += linked[id]
			changed = true
			if dryRun {
				continue
			}
			if err := r.users.PullThought(ctx, u.ID, id); err != nil {
				return changed, ignoreGone(err)
			}
		case linked[id] > 1:
			report.DanglingThoughtRefs += linked[id] - 1
			changed = true
			if dryRun {
				continue
			}
			if err := r.users.PullThought(ctx, u.ID, id); err != nil {
				return changed, ignoreGone(err)
			}
			if err := r.users.PushThought(ctx, u.ID, id); err != nil {
				return changed, ignoreGone(err)
			}
		default:
			continue
		}
		observability.ReferenceRepairs.WithLabelValues("dangling_thought_ref").Inc()
	}

	var missing []string
	for _, id := range owned {
		if linked[id] == 0 {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return changed, nil
	}
	if !dryRun {
		// The owner may have linked them since the listing.
		fresh, err := r.users.GetByID(ctx, u.ID)
		if err != nil {
			return changed, ignoreGone(err)
		}
		missing = slices.DeleteFunc(missing, func(id string) bool {
			return slices.Contains(fresh.Thoughts, id)
		})
	}
	for _, id := range missing {
		report.ThoughtsRelinked++
		changed = true
		if dryRun {
			continue
		}
		if err := r.users.PushThought(ctx, u.ID, id); err != nil {
			return changed, ignoreGone(err)
		}
		observability.ReferenceRepairs.WithLabelValues("relinked_thought").Inc()
	}
	return changed, nil
}

// ignoreGone treats a user deleted mid-scan as nothing left to repair.
func ignoreGone(err error) error {
	if models.IsNotFound(err) {
		return nil
	}
	return err
}
