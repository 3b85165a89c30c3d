package domain

// SecretType is the closed set of credential kinds the vault stores. It is
// validated at the boundary; Provider carries any finer-grained free-form
// classification.
type SecretType string

const (
	SecretTypeAPIKey      SecretType = "api_key"
	SecretTypeDatabase    SecretType = "database"
	SecretTypeSSH         SecretType = "ssh"
	SecretTypeCertificate SecretType = "certificate"
	SecretTypePassword    SecretType = "password"
	SecretTypeGeneric     SecretType = "generic"
)

// Valid reports whether the secret type is one of the supported kinds.
func (s SecretType) Valid() bool {
	switch s {
	case SecretTypeAPIKey, SecretTypeDatabase, SecretTypeSSH,
		SecretTypeCertificate, SecretTypePassword, SecretTypeGeneric:
		return true
	}
	return false
}

// SecretTypes lists all supported secret types.
func SecretTypes() []SecretType {
	return []SecretType{
		SecretTypeAPIKey,
		SecretTypeDatabase,
		SecretTypeSSH,
		SecretTypeCertificate,
		SecretTypePassword,
		SecretTypeGeneric,
	}
}
