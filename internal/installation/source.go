package installation

import (
	"github.com/goliatone/go-jumpgate/internal/remote"
	"github.com/goliatone/go-jumpgate/pkg/interfaces"
)

// SourceFor selects where documentation is read from: the source space for
// consumers, the local space for the other roles. Unconfigured or
// unverified installations read nothing.
func SourceFor(p Parameters, factory *remote.Factory, cfg remote.SourceConfig, logger interfaces.Logger) remote.Source {
	switch p.SpaceType {
	case RoleConsumer:
		if !p.HasCredentials() {
			return remote.EmptySource()
		}
		client, err := factory.External(p.SourceSpaceID, p.SourceDeliveryToken)
		if err != nil {
			if logger != nil {
				logger.Warn("installation.source.external_failed", "error", err)
			}
			return remote.EmptySource()
		}
		return remote.NewSource(client, cfg, logger)
	case RoleSource, RoleSourceAndConsumer:
		client, err := factory.Local()
		if err != nil {
			if logger != nil {
				logger.Warn("installation.source.local_failed", "error", err)
			}
			return remote.EmptySource()
		}
		return remote.NewSource(client, cfg, logger)
	default:
		return remote.EmptySource()
	}
}
