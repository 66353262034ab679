// Package https_server 提供 HTTP/HTTPS 服务器的初始化和配置
// 负责创建 Gin 引擎实例并配置中间件和路由
package https_server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"terrasapp_server/internal/config"
	"terrasapp_server/internal/handler"
	"terrasapp_server/internal/infrastructure/logger"
	"terrasapp_server/internal/infrastructure/middleware"
	"terrasapp_server/internal/router"
)

// Init 创建 Gin 引擎并注册中间件与业务路由
// 配置顺序：日志 -> 恢复 -> CORS -> TLS 重定向（可选） -> 路由
func Init(handlers *handler.Handlers, conf *config.MainConfig) *gin.Engine {
	if conf.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	// 不使用 gin.Default() 以便完全控制中间件
	engine := gin.New()

	engine.Use(logger.GinLogger())
	engine.Use(logger.GinRecovery(true))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"} // 生产环境应指定具体域名
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	engine.Use(cors.New(corsConfig))

	// 由 Nginx 终止 TLS 时关闭
	if conf.TLSRedirect {
		engine.Use(middleware.TlsHandler(conf.Host, conf.Port))
	}

	router.NewRouter(handlers).RegisterRoutes(engine)
	return engine
}
