package store

import (
	"sort"

	"perfect-day/internal/model"
)

// mergeTasks reconciles the server list with the local copy.
//
// Tasks present on both sides keep whichever copy has the later UpdatedAt.
// Tasks only present locally survive when their id is in unsynced (created
// while offline); anything else local-only was deleted elsewhere and is
// dropped. The returned unsynced set only holds ids that are still local-only.
func mergeTasks(remote, local []model.Task, unsynced map[string]bool) ([]model.Task, map[string]bool) {
	localByID := make(map[string]model.Task, len(local))
	for _, t := range local {
		localByID[t.ID] = t
	}

	merged := make([]model.Task, 0, len(remote)+len(unsynced))
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		seen[r.ID] = true
		if l, ok := localByID[r.ID]; ok && l.UpdatedAt.After(r.UpdatedAt) {
			merged = append(merged, l)
			continue
		}
		merged = append(merged, r)
	}

	pending := make(map[string]bool)
	for _, l := range local {
		if seen[l.ID] || !unsynced[l.ID] {
			continue
		}
		merged = append(merged, l)
		pending[l.ID] = true
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged, pending
}

// mergeMoods keeps every server mood plus the local ones the server has never
// seen, newest first.
func mergeMoods(remote, local []model.Mood) []model.Mood {
	seen := make(map[string]bool, len(remote))
	merged := append([]model.Mood(nil), remote...)
	for _, m := range remote {
		seen[m.ID] = true
	}
	for _, m := range local {
		if !seen[m.ID] {
			merged = append(merged, m)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})
	return merged
}
