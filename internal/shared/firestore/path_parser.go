package firestore

import (
	"fmt"
	"regexp"
	"strings"

	"favorites-reconciler/internal/shared/errors"
)

// DefaultDatabaseID is the database a credential targets when none is given
const DefaultDatabaseID = "(default)"

const maxIDBytes = 1500

// IDs matching __.*__ are reserved
var reservedIDPattern = regexp.MustCompile(`^__.*__$`)

// ParseDocumentPath splits a relative path into its non-empty segments
func ParseDocumentPath(documentPath string) []string {
	result := []string{}
	for _, segment := range strings.Split(documentPath, "/") {
		if segment != "" {
			result = append(result, segment)
		}
	}
	return result
}

// BuildFirestorePath constructs a Firestore resource name. An empty
// documentPath yields the database root.
func BuildFirestorePath(projectID, databaseID, documentPath string) string {
	root := fmt.Sprintf("projects/%s/databases/%s/documents", projectID, databaseID)
	if documentPath == "" {
		return root
	}
	return root + "/" + strings.Trim(documentPath, "/")
}

// SplitCollectionPath returns the parent document path and the collection ID
// of a collection path. Top-level collections have an empty parent.
func SplitCollectionPath(collectionPath string) (parentPath, collectionID string, err error) {
	if err := ValidateCollectionPath(collectionPath); err != nil {
		return "", "", err
	}
	segments := ParseDocumentPath(collectionPath)
	return JoinPaths(segments[:len(segments)-1]...), segments[len(segments)-1], nil
}

// IsValidID checks a collection or document ID against Firestore's naming rules
func IsValidID(id string) bool {
	if id == "" || len(id) > maxIDBytes {
		return false
	}
	if id == "." || id == ".." || strings.Contains(id, "/") {
		return false
	}
	return !reservedIDPattern.MatchString(id)
}

// ValidateDocumentID rejects a document ID that IsValidID refuses
func ValidateDocumentID(id string) error {
	if !IsValidID(id) {
		return errors.NewValidationError(fmt.Sprintf("invalid document ID %q", id)).
			WithCause(errors.ErrInvalidDocumentID)
	}
	return nil
}

// ValidateCollectionPath validates a relative collection path
func ValidateCollectionPath(path string) error {
	segments := ParseDocumentPath(path)
	if len(segments) == 0 {
		return errors.NewValidationError("collection path cannot be empty").
			WithCause(errors.ErrInvalidPath)
	}

	if len(segments)%2 != 1 {
		return errors.NewValidationError("invalid collection path: must have odd number of segments").
			WithCause(errors.ErrInvalidPath).
			WithDetail("path", path)
	}

	for i, segment := range segments {
		if !IsValidID(segment) {
			return errors.NewValidationError("invalid segment in collection path").
				WithCause(errors.ErrInvalidPath).
				WithDetail("segment", segment).
				WithDetail("position", i)
		}
	}

	return nil
}

// JoinPaths joins path segments, skipping empty ones
func JoinPaths(segments ...string) string {
	var validSegments []string
	for _, segment := range segments {
		if trimmed := strings.Trim(segment, "/"); trimmed != "" {
			validSegments = append(validSegments, trimmed)
		}
	}
	return strings.Join(validSegments, "/")
}
