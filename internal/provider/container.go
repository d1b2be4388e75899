package provider

import (
	"github.com/pricetide/internal/cache"
	"github.com/pricetide/internal/catalog"
	"github.com/pricetide/internal/config"
	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/queue"
	"github.com/pricetide/internal/repository"
	"github.com/pricetide/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	RuleRepo      repository.RuleRepository
	ItemStateRepo repository.ItemStateRepository
	LedgerRepo    repository.LedgerRepository
	EventRepo     repository.EventRepository
	CatalogRepo   repository.CatalogRepository
	AnalyticsRepo repository.AnalyticsRepository

	// Services
	Catalog           *catalog.Catalog
	RuleEngine        *service.RuleEngine
	PriceStateService *service.PriceStateService
	LedgerService     *service.LedgerService
	SchedulerService  *service.SchedulerService
	RuleAdminService  *service.RuleAdminService
	AnalyticsService  *service.AnalyticsService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.RuleRepo = repository.NewRuleRepository(db)
	c.ItemStateRepo = repository.NewItemStateRepository(db)
	c.LedgerRepo = repository.NewLedgerRepository(db)
	c.EventRepo = repository.NewEventRepository(db)
	c.CatalogRepo = repository.NewCatalogRepository(db)
	c.AnalyticsRepo = repository.NewAnalyticsRepository(db)
}

func (c *Container) initServices() {
	c.Catalog = catalog.New(c.CatalogRepo)
	c.RuleEngine = service.NewRuleEngine()
	c.PriceStateService = service.NewPriceStateService(
		models.DB,
		c.ItemStateRepo,
		c.RuleRepo,
		c.LedgerRepo,
		c.RuleEngine,
		c.Catalog,
		c.Catalog,
	)
	c.LedgerService = service.NewLedgerService(c.LedgerRepo, c.PriceStateService)

	// 队列未启用时 nudger 为空，调度完全依赖兜底 sweep
	var nudger service.SweepNudger
	if c.QueueClient.Enabled() {
		nudger = c.QueueClient
	}
	c.SchedulerService = service.NewSchedulerService(
		c.RuleRepo,
		c.EventRepo,
		c.ItemStateRepo,
		c.PriceStateService,
		c.Catalog,
		c.Catalog,
		nudger,
		c.Config.Scheduler.SweepBatchSize,
		c.Config.Scheduler.SweepParallelism,
	)
	c.RuleAdminService = service.NewRuleAdminService(
		c.RuleRepo,
		c.EventRepo,
		c.ItemStateRepo,
		c.RuleEngine,
		c.SchedulerService,
		c.PriceStateService,
	)
	c.AnalyticsService = service.NewAnalyticsService(c.AnalyticsRepo)
}
