package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-config/cfgx"
	opts "github.com/goliatone/go-options"
)

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type serviceBuilder struct {
	runtimeConfig    Config
	logger           Logger
	loggerProvider   LoggerProvider
	errorMapper      ErrorMapper
	configProvider   ConfigProvider
	optionsResolver  OptionsResolver
	provider         CalendarProvider
	integrationStore IntegrationStore
	credentialStore  CredentialStore
	syncStateStore   SyncStateStore
	eventStore       EventStore
	now              func() time.Time
}

type Option func(*serviceBuilder)

func WithLogger(logger Logger) Option {
	return func(b *serviceBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *serviceBuilder) {
		b.loggerProvider = provider
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *serviceBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *serviceBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *serviceBuilder) {
		b.optionsResolver = resolver
	}
}

func WithCalendarProvider(provider CalendarProvider) Option {
	return func(b *serviceBuilder) {
		b.provider = provider
	}
}

func WithIntegrationStore(store IntegrationStore) Option {
	return func(b *serviceBuilder) {
		b.integrationStore = store
	}
}

func WithCredentialStore(store CredentialStore) Option {
	return func(b *serviceBuilder) {
		b.credentialStore = store
	}
}

func WithSyncStateStore(store SyncStateStore) Option {
	return func(b *serviceBuilder) {
		b.syncStateStore = store
	}
}

func WithEventStore(store EventStore) Option {
	return func(b *serviceBuilder) {
		b.eventStore = store
	}
}

func WithStoreProvider(provider StoreProvider) Option {
	return func(b *serviceBuilder) {
		if provider == nil {
			return
		}
		b.integrationStore = provider.IntegrationStore()
		b.credentialStore = provider.CredentialStore()
		b.syncStateStore = provider.SyncStateStore()
		b.eventStore = provider.EventStore()
	}
}

func WithNow(now func() time.Time) Option {
	return func(b *serviceBuilder) {
		b.now = now
	}
}

func defaultServiceBuilder(cfg Config) serviceBuilder {
	return serviceBuilder{
		runtimeConfig: cfg,
	}
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	if err := resolved.Validate(); err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || strings.TrimSpace(cfg.ServiceName) != "" {
		layer["service_name"] = cfg.ServiceName
	}
	if includeZero || strings.TrimSpace(cfg.WebhookURL) != "" {
		layer["webhook_url"] = cfg.WebhookURL
	}
	if includeZero || cfg.RefreshLeadWindow != 0 {
		layer["refresh_lead_window"] = cfg.RefreshLeadWindow
	}
	if includeZero || cfg.RefreshFailureLimit != 0 {
		layer["refresh_failure_limit"] = cfg.RefreshFailureLimit
	}
	if includeZero || cfg.SyncWindow.PastDays != 0 || cfg.SyncWindow.FutureDays != 0 {
		layer["sync_window"] = map[string]any{
			"past_days":   cfg.SyncWindow.PastDays,
			"future_days": cfg.SyncWindow.FutureDays,
		}
	}
	if includeZero || cfg.LocalWindow.PastDays != 0 || cfg.LocalWindow.FutureDays != 0 {
		layer["local_window"] = map[string]any{
			"past_days":   cfg.LocalWindow.PastDays,
			"future_days": cfg.LocalWindow.FutureDays,
		}
	}
	return layer
}
