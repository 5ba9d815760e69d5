package database

var (
	BackfillAppliedAtSQL = backfillAppliedAtSQL
	RequireAppliedAtSQL  = requireAppliedAtSQL
)
