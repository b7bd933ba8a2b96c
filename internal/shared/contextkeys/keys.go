package contextkeys

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "favorites-reconciler context key " + string(c)
}

// RunIDKey is the key for the reconciliation run ID in context.Context
const RunIDKey = contextKey("runID")

// ProjectIDKey is the key for the project the credential is scoped to
const ProjectIDKey = contextKey("projectID")

// DatabaseIDKey is the key for the database the credential is scoped to
const DatabaseIDKey = contextKey("databaseID")

// UserIDKey is the key for the user document currently being scanned
const UserIDKey = contextKey("userID")

// ComponentKey is the key for the component emitting logs
const ComponentKey = contextKey("component")

// OperationKey is the key for the pipeline step in progress
const OperationKey = contextKey("operation")
