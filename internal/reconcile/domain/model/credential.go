package model

import "favorites-reconciler/internal/shared/firestore"

// Credential is a service-account style document that scopes a run to one
// project and database
type Credential struct {
	Type         string `json:"type" validate:"required"`
	ProjectID    string `json:"project_id" validate:"required"`
	PrivateKeyID string `json:"private_key_id" validate:"required"`
	PrivateKey   string `json:"private_key" validate:"required"`
	ClientEmail  string `json:"client_email" validate:"required"`
	ClientID     string `json:"client_id" validate:"required"`
	DatabaseID   string `json:"database_id,omitempty"`
	TokenURI     string `json:"token_uri,omitempty"`
}

// Database returns the database ID, defaulting to "(default)"
func (c *Credential) Database() string {
	if c.DatabaseID == "" {
		return firestore.DefaultDatabaseID
	}
	return c.DatabaseID
}
