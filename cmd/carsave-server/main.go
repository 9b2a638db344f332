package main

import (
	"context"
	"flag"
	"net/http"
	"os"

	"github.com/CarSave/CarSave/internal/backup"
	"github.com/CarSave/CarSave/internal/common/config"
	"github.com/CarSave/CarSave/internal/common/db"
	"github.com/CarSave/CarSave/internal/common/logger"
	"github.com/CarSave/CarSave/internal/common/mail"
	"github.com/CarSave/CarSave/internal/common/middleware"
	"github.com/CarSave/CarSave/internal/common/server"
	"github.com/CarSave/CarSave/internal/common/storage"
	"github.com/CarSave/CarSave/internal/common/tracing"
	"github.com/CarSave/CarSave/internal/feedback"
	"github.com/CarSave/CarSave/internal/maintenance"
	"github.com/CarSave/CarSave/internal/user"
	"github.com/CarSave/CarSave/internal/vehicle"
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "configs/carsave-server.json", "配置文件路径")
	consulConfigKey := flag.String("consul-config-key", "", "从 Consul KV 加载配置（优先于本地文件）")
	flag.Parse()

	var cfg *config.Config
	var err error
	if *consulConfigKey != "" {
		local := config.GetConfig()
		cfg, err = config.LoadConfigFromConsulKV(local.Consul.Host, local.Consul.Port, *consulConfigKey)
	} else {
		cfg, err = config.LoadConfig(*configPath)
	}
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log, err := logger.NewLogger(cfg.Log.Driver, cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.Path)
	if err != nil {
		logrus.Fatalf("failed to init logger: %v", err)
	}

	tracer, closer, err := tracing.InitTracer(cfg.Server.Name, cfg.Jaeger.Endpoint, cfg.Jaeger.Sampler)
	if err != nil {
		log.Warnf("failed to init tracer: %v", err)
	} else {
		opentracing.SetGlobalTracer(tracer)
		defer closer.Close()
	}

	gormDB, err := db.NewMySQL(
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.User, cfg.Database.Password, cfg.Database.Database,
		cfg.Database.MaxIdle, cfg.Database.MaxOpen,
	)
	if err != nil {
		log.Errorf("failed to connect database: %v", err)
		os.Exit(1)
	}
	if err := gormDB.AutoMigrate(
		&user.User{},
		&vehicle.Vehicle{},
		&maintenance.Component{},
		&maintenance.Record{},
		&feedback.Feedback{},
		&backup.Meta{},
	); err != nil {
		log.Errorf("failed to migrate database: %v", err)
		os.Exit(1)
	}

	// 可选外部依赖：邮件和对象存储失败只降级对应功能，不阻塞启动
	var mailer user.MailSender
	if m, err := mail.NewMailer(cfg.Mail); err != nil {
		log.Warnf("mail disabled: %v", err)
	} else {
		mailer = m
	}
	var store backup.ObjectStore
	if s, err := storage.NewStore(context.Background(), cfg.Minio); err != nil {
		log.Warnf("backup storage disabled: %v", err)
	} else {
		store = s
	}

	userSvc := user.NewService(user.NewRepo(gormDB), user.NewWechatClient(cfg.Wechat), mailer, cfg.Auth, log)
	vehicleSvc := vehicle.NewService(vehicle.NewRepo(gormDB), log)
	maintSvc := maintenance.NewService(maintenance.NewRepo(gormDB), vehicle.NewRepo(gormDB), log)
	feedbackSvc := feedback.NewService(feedback.NewRepo(gormDB), log)
	backupSvc := backup.NewService(backup.NewRepo(gormDB), store, log)

	// 车辆删除时级联清理保养部件和记录
	vehicleSvc.RegisterDeleteHook(maintSvc.RemoveVehicleData)

	engine := buildEngine(cfg, log, userSvc, vehicleSvc, maintSvc, feedbackSvc, backupSvc)
	if err := server.RunHTTPServer(cfg, log, engine); err != nil {
		log.Errorf("server exited with error: %v", err)
		os.Exit(1)
	}
}

func buildEngine(
	cfg *config.Config,
	log logger.Logger,
	userSvc *user.Service,
	vehicleSvc *vehicle.Service,
	maintSvc *maintenance.Service,
	feedbackSvc *feedback.Service,
	backupSvc *backup.Service,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		server.Recovery(log),
		server.AccessLog(log),
		server.Tracing(cfg.Server.Name),
		server.JWTAuth(cfg.Auth, log),
	)

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// 登录注册接口单独限流，防止撞库
	authLimited := engine.Group("", server.RateLimit(middleware.NewTokenBucket(20, 10)))
	user.NewHandler(userSvc).Register(authLimited)

	vehicle.NewHandler(vehicleSvc).Register(engine)
	maintenance.NewHandler(maintSvc).Register(engine)
	feedback.NewHandler(feedbackSvc).Register(engine)
	backup.NewHandler(backupSvc).Register(engine)

	return engine
}
