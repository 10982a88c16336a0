package storage

import (
	"context"
	"fmt"
	"log"
	"time"
)

type RetentionPolicy struct {
	Days  int
	Count int
}

type RetentionResult struct {
	DeletedCount int
	DeletedKeys  []string
	Errors       []error
}

func (p *RetentionPolicy) IsEnabled() bool {
	return p.Days > 0 || p.Count > 0
}

// ApplyRetention removes stored snapshots that fall outside the policy:
// older than Days, or beyond the Count newest. A snapshot inside the Count
// newest is always kept, even when it is older than Days.
func ApplyRetention(ctx context.Context, client *R2Client, policy RetentionPolicy) (*RetentionResult, error) {
	if !policy.IsEnabled() {
		return &RetentionResult{}, nil
	}

	snapshots, err := client.ListSnapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := &RetentionResult{}
	for _, snap := range snapshotsToDelete(snapshots, policy, time.Now()) {
		if err := client.Delete(ctx, snap.Key); err != nil {
			result.Errors = append(result.Errors, err)
			log.Printf("Failed to delete snapshot %s: %v", snap.Key, err)
			continue
		}
		result.DeletedCount++
		result.DeletedKeys = append(result.DeletedKeys, snap.Key)
		log.Printf("Deleted old snapshot: %s", snap.Key)
	}
	return result, nil
}

// snapshotsToDelete expects snapshots sorted newest first, as ListSnapshots
// returns them. The Count newest are always kept, even past the age limit.
func snapshotsToDelete(snapshots []SnapshotObject, policy RetentionPolicy, now time.Time) []SnapshotObject {
	var toDelete []SnapshotObject
	maxAge := time.Duration(policy.Days) * 24 * time.Hour

	for i, snap := range snapshots {
		if policy.Count > 0 && i < policy.Count {
			continue
		}
		beyondCount := policy.Count > 0 && i >= policy.Count
		expired := policy.Days > 0 && now.Sub(snap.LastModified) > maxAge
		if beyondCount || expired {
			toDelete = append(toDelete, snap)
		}
	}
	return toDelete
}
