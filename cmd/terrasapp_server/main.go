package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"terrasapp_server/internal/config"
	"terrasapp_server/internal/dao/memory"
	dao "terrasapp_server/internal/dao/mysql"
	"terrasapp_server/internal/dao/mysql/repository"
	myredis "terrasapp_server/internal/dao/redis"
	"terrasapp_server/internal/handler"
	"terrasapp_server/internal/https_server"
	"terrasapp_server/internal/infrastructure/logger"
	"terrasapp_server/internal/infrastructure/mq"
	"terrasapp_server/internal/service"
	"terrasapp_server/internal/service/chat"
	"terrasapp_server/pkg/util/jwt"
	"terrasapp_server/pkg/util/snowflake"
)

func main() {
	// 1. 加载配置
	conf := config.GetConfig()

	// 2. 初始化日志
	if err := logger.Init(&conf.LogConfig, conf.MainConfig.Mode); err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer zap.L().Sync()

	// 3. ID 生成器、JWT、参数校验翻译
	snowflake.Init()
	jwt.Init(conf.JWTConfig.Secret, conf.JWTConfig.AccessTokenExpiry)
	if err := handler.InitTrans("en"); err != nil {
		zap.L().Fatal("init validator translator failed", zap.Error(err))
	}

	// 4. 存储
	var repos *repository.Repositories
	switch conf.StoreConfig.Driver {
	case "memory":
		repos = memory.NewStore().Repositories()
		zap.L().Warn("using in-memory store, data is lost on restart")
	default:
		repos = dao.Init()
	}
	zap.L().Info("存储初始化成功", zap.String("driver", conf.StoreConfig.Driver))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := chat.Options{
		Conn: chat.ConnOptions{
			SendQueueSize:  conf.WsConfig.SendQueueSize,
			PongWait:       time.Duration(conf.WsConfig.PongWait) * time.Second,
			MaxMessageSize: int64(conf.WsConfig.MaxMessageSize),
		},
	}

	// 5. Redis 在线状态镜像（可选）
	var cache *myredis.RedisCache
	if conf.RedisConfig.Enabled {
		var err error
		if cache, err = myredis.Init(ctx, &conf.RedisConfig); err != nil {
			zap.L().Fatal("redis init failed", zap.Error(err))
		}
		opts.Presence = cache
		zap.L().Info("Redis 初始化成功")
	}

	// 6. Kafka 领域事件（可选）
	var publisher *mq.KafkaPublisher
	if conf.KafkaConfig.MessageMode == "kafka" {
		publisher = mq.NewKafkaPublisher(&conf.KafkaConfig)
		opts.Events = publisher
		zap.L().Info("Kafka 事件发布已开启", zap.String("topic", conf.KafkaConfig.EventTopic))
	}

	// 7. Service / Handler / 路由
	svc := service.NewServices(repos, opts)
	engine := https_server.Init(handler.NewHandlers(svc, &conf.WsConfig), &conf.MainConfig)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", conf.MainConfig.Host, conf.MainConfig.Port),
		Handler: engine,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zap.L().Info("服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		zap.L().Info("关闭服务器...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// 先停止接收新请求，再断开 WebSocket，最后释放依赖
		err := srv.Shutdown(shutdownCtx)
		if cerr := svc.Chat.Shutdown(shutdownCtx); cerr != nil {
			zap.L().Warn("websocket shutdown incomplete", zap.Error(cerr))
		}
		if publisher != nil {
			if cerr := publisher.Close(); cerr != nil {
				zap.L().Warn("close kafka publisher failed", zap.Error(cerr))
			}
		}
		if cache != nil {
			if cerr := cache.Close(); cerr != nil {
				zap.L().Warn("close redis failed", zap.Error(cerr))
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		zap.L().Error("server exited with error", zap.Error(err))
		return
	}
	zap.L().Info("服务器已关闭")
}
