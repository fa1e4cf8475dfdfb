package entities

// SweepReport summarizes one cancellation sweep run, split by pass.
type SweepReport struct {
	SameDay  int `json:"same_day"`
	Stale    int `json:"stale"`
	Failures int `json:"failures"`
	Skipped  bool `json:"skipped"`
}
