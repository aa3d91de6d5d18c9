package types

// Failure records one branch that could not be resolved: a database whose
// tables could not be listed (Table empty) or a table that could not be
// described.
type Failure struct {
	Database string
	Table    string
	Err      string
}

type WalkSummary struct {
	Databases int
	Tables    int
	Columns   int
	Failures  []Failure
}
