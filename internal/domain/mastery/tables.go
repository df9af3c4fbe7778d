package mastery

// Tables lists every record the engine owns, in creation order.
func Tables() []any {
	return []any{
		&MasteryModel{},
		&MasteryLevel{},
		&SnapshotRun{},
		&Snapshot{},
		&EvidenceLink{},
		&SnapshotReviewEvent{},
	}
}
