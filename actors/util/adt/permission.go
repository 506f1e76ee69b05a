package adt

// MutationPermission is the mutation permission a state mutator holds on one state field.
type MutationPermission int

const (
	// InvalidPermission means the field was not loaded.
	InvalidPermission MutationPermission = iota
	// ReadOnlyPermission allows reading but not mutating the field.
	ReadOnlyPermission
	// WritePermission allows mutating the field, which is flushed on commit.
	WritePermission
)
