package sqlstore

import "github.com/goliatone/go-calendar-sync/core"

var (
	_ core.IntegrationStore = (*IntegrationStore)(nil)
	_ core.CredentialStore  = (*CredentialStore)(nil)
	_ core.SyncStateStore   = (*SyncStateStore)(nil)
	_ core.EventStore       = (*EventStore)(nil)
	_ core.StoreProvider    = (*RepositoryFactory)(nil)
)
