package credentials

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"favorites-reconciler/internal/reconcile/domain/model"
	"favorites-reconciler/internal/reconcile/domain/repository"
	"favorites-reconciler/internal/shared/errors"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
)

// ServiceAccountType is the only credential type the loader accepts
const ServiceAccountType = "service_account"

// FileLoader reads a service-account JSON document from disk.
// Nothing here touches the network.
type FileLoader struct {
	validate *validator.Validate
	readFile func(string) ([]byte, error)
}

var _ repository.CredentialLoader = (*FileLoader)(nil)

// NewFileLoader creates a loader reading from the local filesystem
func NewFileLoader() *FileLoader {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &FileLoader{
		validate: v,
		readFile: os.ReadFile,
	}
}

// Load reads, parses and validates the credential at path
func (l *FileLoader) Load(path string) (*model.Credential, error) {
	if path == "" {
		return nil, errors.NewInvalidCredentialError("credential source is required").
			WithCause(errors.ErrMissingCredential)
	}

	raw, err := l.readFile(path)
	if err != nil {
		return nil, errors.NewInvalidCredentialError(fmt.Sprintf("cannot read credential file %s", path)).
			WithCause(err).
			WithDetail("source", path)
	}
	return l.Parse(raw)
}

// Parse validates an in-memory credential document
func (l *FileLoader) Parse(raw []byte) (*model.Credential, error) {
	var cred model.Credential
	if err := json.Unmarshal(raw, &cred); err != nil {
		return nil, errors.NewMalformedCredentialError("credential is not valid JSON").WithCause(err)
	}

	if err := l.validate.Struct(&cred); err != nil {
		return nil, missingFieldsError(err)
	}

	if cred.Type != ServiceAccountType {
		return nil, errors.NewInvalidCredentialError(fmt.Sprintf("unsupported credential type %q", cred.Type)).
			WithDetail("field", "type")
	}

	// Service-account files often carry the key with escaped newlines.
	key := strings.ReplaceAll(cred.PrivateKey, `\n`, "\n")
	if _, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key)); err != nil {
		return nil, errors.NewMalformedCredentialError("private_key is not a valid RSA PEM key").
			WithCause(err).
			WithDetail("field", "private_key")
	}
	cred.PrivateKey = key

	return &cred, nil
}

func missingFieldsError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInvalidCredentialError("credential failed validation").WithCause(err)
	}

	collected := errors.NewValidationErrors()
	for _, fe := range verrs {
		collected.Add(fe.Field(), fmt.Sprintf("%s is %s", fe.Field(), fe.Tag()), nil)
	}
	fields := collected.Fields()
	return errors.NewInvalidCredentialError(fmt.Sprintf("credential is missing required fields: %s", strings.Join(fields, ", "))).
		WithCause(collected).
		WithDetail("fields", fields)
}
