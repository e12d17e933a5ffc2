package provider

import (
	"github.com/meit-next/internal/cache"
	"github.com/meit-next/internal/config"
	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/models"
	"github.com/meit-next/internal/queue"
	"github.com/meit-next/internal/repository"
	"github.com/meit-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	MerchantRepo         repository.MerchantRepository
	BranchRepo           repository.BranchRepository
	CustomerRepo         repository.CustomerRepository
	CustomerMerchantRepo repository.CustomerMerchantRepository
	PointTxnRepo         repository.PointTransactionRepository
	GiftCardRepo         repository.GiftCardRepository
	ChallengeRepo        repository.ChallengeRepository
	AuditLogRepo         repository.AuditLogRepository
	StaffRepo            repository.StaffRepository

	// Services
	AuthService      *service.AuthService
	MerchantService  *service.MerchantService
	BranchService    *service.BranchService
	CustomerService  *service.CustomerService
	ChallengeService *service.ChallengeService
	GiftCardService  *service.GiftCardService
	PointsService    *service.PointsService
	AuditService     *service.AuditService
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
	c.MerchantRepo = repository.NewMerchantRepository(db)
	c.BranchRepo = repository.NewBranchRepository(db)
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.CustomerMerchantRepo = repository.NewCustomerMerchantRepository(db)
	c.PointTxnRepo = repository.NewPointTransactionRepository(db)
	c.GiftCardRepo = repository.NewGiftCardRepository(db)
	c.ChallengeRepo = repository.NewChallengeRepository(db)
	c.AuditLogRepo = repository.NewAuditLogRepository(db)
	c.StaffRepo = repository.NewStaffRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.StaffRepo)
	c.MerchantService = service.NewMerchantService(c.MerchantRepo, c.AuditLogRepo)
	c.BranchService = service.NewBranchService(c.BranchRepo, c.AuditLogRepo)
	c.CustomerService = service.NewCustomerService(c.CustomerRepo, c.CustomerMerchantRepo, c.AuditLogRepo)
	c.ChallengeService = service.NewChallengeService(c.ChallengeRepo, c.AuditLogRepo)
	c.GiftCardService = service.NewGiftCardService(models.DB, c.GiftCardRepo, c.CustomerMerchantRepo, c.PointTxnRepo, c.AuditLogRepo)
	c.PointsService = service.NewPointsService(
		models.DB,
		c.MerchantRepo,
		c.BranchRepo,
		c.CustomerRepo,
		c.CustomerMerchantRepo,
		c.PointTxnRepo,
		c.ChallengeRepo,
		c.GiftCardService,
		c.AuditLogRepo,
	)
	c.AuditService = service.NewAuditService(c.AuditLogRepo)
}
