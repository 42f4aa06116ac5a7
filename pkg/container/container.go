package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"market-api/internal/config"
	infraCache "market-api/internal/infrastructure/cache"
	"market-api/internal/infrastructure/database"
	"market-api/internal/infrastructure/mongodb"
	"market-api/internal/infrastructure/storage"
	"market-api/internal/shared/middleware"
	"market-api/pkg/cache"
	"market-api/pkg/jwt"

	"market-api/internal/domains/listing"
	listingHandler "market-api/internal/domains/listing/handler"
	listingRepo "market-api/internal/domains/listing/repository"
	listingService "market-api/internal/domains/listing/service"

	"market-api/internal/domains/user"
	userHandler "market-api/internal/domains/user/handler"
	userRepo "market-api/internal/domains/user/repository"
	userService "market-api/internal/domains/user/service"

	"market-api/internal/domains/upload"
	uploadHandler "market-api/internal/domains/upload/handler"
	uploadService "market-api/internal/domains/upload/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
// Mọi client được tạo một lần lúc khởi động, dùng chung theo reference,
// và được đóng trong Cleanup()
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config      *config.Config
	DB          *database.PostgresDB // nil khi STORE_DRIVER=mongo
	Mongo       *mongodb.Client      // nil khi STORE_DRIVER=postgres
	Cache       cache.Cache
	JWTManager  *jwt.Manager
	Storage     *storage.MinIOStorage // nil khi S3 chưa cấu hình
	AsynqClient *asynq.Client
	AuthLimiter *middleware.IPRateLimiter

	// ========================================
	// REPOSITORY LAYER
	// ========================================
	ListingRepo listing.Repository
	UserRepo    user.Repository

	// ========================================
	// SERVICE LAYER
	// ========================================
	ListingService listing.Service
	UserService    user.Service
	UploadService  upload.Service

	// ========================================
	// HANDLER LAYER
	// ========================================
	ListingHandler *listingHandler.Handler
	UserHandler    *userHandler.UserHandler
	UploadHandler  *uploadHandler.UploadHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (store, cache, object storage, queue client)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s, Store: %s)", cfg.App.Environment, cfg.Store.Driver)

	// ========================================
	// STEP 2: INITIALIZE STORE
	// ========================================
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.initStore(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	log.Println("🔴 Connecting to Redis...")

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := redisCache.Connect(ctx); err != nil {
		// Redis failure không critical - cache lỗi chỉ bị log
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}
	c.Cache = redisCache

	// Asynq dùng chung Redis; client chỉ kết nối khi enqueue
	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// ========================================
	// STEP 4: AUTH + OBJECT STORAGE
	// ========================================
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Hour)
	c.AuthLimiter = middleware.NewIPRateLimiter(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)

	if err := c.initStorage(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 5: REPOSITORIES -> SERVICES -> HANDLERS
	// ========================================
	c.initRepositories()

	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	c.initHandlers()

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

// initStore kết nối backend theo STORE_DRIVER và chuẩn bị schema/index
func (c *Container) initStore(ctx context.Context) error {
	switch c.Config.Store.Driver {
	case config.StoreDriverMongo:
		log.Println("🍃 Connecting to MongoDB...")

		client, err := mongodb.Connect(ctx, c.Config.Mongo.URI, c.Config.Mongo.Database, c.Config.Mongo.Timeout)
		if err != nil {
			return fmt.Errorf("failed to connect to mongo: %w", err)
		}
		c.Mongo = client

		if err := listingRepo.EnsureListingIndexes(ctx, client.Database); err != nil {
			return fmt.Errorf("failed to ensure listing indexes: %w", err)
		}
		if err := userRepo.EnsureUserIndexes(ctx, client.Database); err != nil {
			return fmt.Errorf("failed to ensure user indexes: %w", err)
		}
		log.Println("✅ MongoDB connected, indexes ensured")

	default:
		log.Println("🗄️  Connecting to PostgreSQL...")

		dbConfig := &c.Config.Database

		// Connect có retry nên chạy trước migrate
		db := database.NewPostgresDB(dbConfig)
		if err := db.Connect(ctx); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		c.DB = db
		log.Println("✅ Database connected")

		if c.Config.Store.AutoMigrate {
			if err := database.Migrate(dbConfig); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Println("✅ Migrations applied")
		}
	}
	return nil
}

// initStorage tạo MinIO client khi S3 đã cấu hình đủ
// Thiếu config không phải lỗi: /api/s3/* sẽ trả 400
func (c *Container) initStorage(ctx context.Context) error {
	s3 := c.Config.S3
	if !s3.Configured() {
		log.Printf("⚠️  Object storage not configured (missing %v)", s3.MissingFields())
		return nil
	}

	store, err := storage.NewMinIOStorage(s3)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}

	// MinIO local: tự tạo bucket
	if c.Config.App.Environment == "development" {
		if err := store.EnsureBucket(ctx); err != nil {
			log.Printf("⚠️  Failed to ensure bucket %s: %v", s3.Bucket, err)
		}
	}

	c.Storage = store
	log.Printf("✅ Object storage ready (bucket=%s)", s3.Bucket)
	return nil
}

func (c *Container) initRepositories() {
	if c.Mongo != nil {
		c.ListingRepo = listingRepo.NewMongoRepository(c.Mongo.Database)
		c.UserRepo = userRepo.NewMongoRepository(c.Mongo.Database)
		return
	}
	c.ListingRepo = listingRepo.NewPostgresRepository(c.DB.Pool)
	c.UserRepo = userRepo.NewPostgresRepository(c.DB.Pool)
}

func (c *Container) initServices() error {
	c.ListingService = listingService.NewService(
		c.ListingRepo,
		c.Cache,
		c.Config.Cache.ListingTTL,
		c.AsynqClient,
	)

	svc, err := userService.NewUserService(c.UserRepo, c.JWTManager)
	if err != nil {
		return err
	}
	c.UserService = svc

	// Interface phải nil thật (không phải typed nil) để service nhận ra S3 chưa cấu hình
	var store uploadService.ObjectStore
	if c.Storage != nil {
		store = c.Storage
	}
	c.UploadService = uploadService.NewUploadService(store, c.Config.S3)

	return nil
}

func (c *Container) initHandlers() {
	c.ListingHandler = listingHandler.NewHandler(c.ListingService, listing.SearchMode(c.Config.Search.Mode))
	c.UserHandler = userHandler.NewUserHandler(c.UserService)
	c.UploadHandler = uploadHandler.NewUploadHandler(c.UploadService)
}

// ========================================
// HEALTH + CLEANUP
// ========================================

// HealthCheck ping store đang dùng
func (c *Container) HealthCheck(ctx context.Context) error {
	if c.Mongo != nil {
		return c.Mongo.HealthCheck(ctx)
	}
	if c.DB != nil {
		return c.DB.HealthCheck(ctx)
	}
	return fmt.Errorf("no store configured")
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("⚠️  Failed to close database: %v", err)
		}
	}

	if c.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.Mongo.Close(ctx); err != nil {
			log.Printf("⚠️  Failed to close mongo: %v", err)
		}
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		}
	}

	log.Println("✅ Container cleanup completed")
}
