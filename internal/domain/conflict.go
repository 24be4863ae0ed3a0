package domain

// ConflictSource names which side of a sync a value came from.
type ConflictSource string

const (
	SourceProvider ConflictSource = "provider"
	SourcePlatform ConflictSource = "platform"
)

// Conflict is a field where the provider and platform versions of the same
// logical entity disagree. Conflicts live only within a single sync run.
type Conflict struct {
	Field         string
	ProviderValue any
	PlatformValue any
}

// Resolution is the adjudicated outcome for one conflict.
type Resolution struct {
	Field  string
	Source ConflictSource
	Reason string
}
