// Package identity mints the ids jumpgate persists or hands to clients.
package identity

import (
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const installationNamespace = "jumpgate:installation:"

// InstallationUUID is the stable primary key of the installation row for a
// "space:environment" scope. The same scope always yields the same id.
func InstallationUUID(scope string) uuid.UUID {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		return uuid.Nil
	}
	key := installationNamespace + scope
	id, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(true))
	if err == nil && id != uuid.Nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
}

// SessionID returns a random editor session id.
func SessionID() string {
	return uuid.NewString()
}
