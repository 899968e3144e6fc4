package application

import (
	"log/slog"
	"time"

	"github.com/sardarit-bd/real-estate-punta-backend/internal/domain"
	"github.com/sardarit-bd/real-estate-punta-backend/internal/ports"
)

type Service struct {
	cfg        Config
	leases     ports.LeaseRepository
	users      ports.UserDirectory
	properties ports.PropertyDirectory
	cache      ports.Cache
	notifier   ports.Notifier
	logger     *slog.Logger
	nowFn      func() time.Time
}

type Dependencies struct {
	Config     Config
	Leases     ports.LeaseRepository
	Users      ports.UserDirectory
	Properties ports.PropertyDirectory
	Cache      ports.Cache
	Notifier   ports.Notifier
	Logger     *slog.Logger
	// Clock overrides time.Now; tests pin it.
	Clock func() time.Time
}

func NewService(deps Dependencies) *Service {
	cfg := deps.Config
	if cfg.ServiceName == "" {
		cfg.ServiceName = "lease-service"
	}
	if cfg.SignatureWindow <= 0 {
		cfg.SignatureWindow = domain.DefaultSignatureWindow
	}
	if cfg.ExpiringSoonWindow <= 0 {
		cfg.ExpiringSoonWindow = 30 * 24 * time.Hour
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = time.Minute
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if cfg.MaxTransitionAttempts <= 0 {
		cfg.MaxTransitionAttempts = 2
	}
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 200
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := deps.Cache
	if cache == nil {
		cache = noopCache{}
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	nowFn := deps.Clock
	if nowFn == nil {
		nowFn = func() time.Time { return time.Now().UTC() }
	}

	return &Service{
		cfg:        cfg,
		leases:     deps.Leases,
		users:      deps.Users,
		properties: deps.Properties,
		cache:      cache,
		notifier:   notifier,
		logger:     logger.With("module", "lease-engine", "layer", "application"),
		nowFn:      nowFn,
	}
}

func (s *Service) Config() Config {
	return s.cfg
}
