package server

import (
	"context"
	"errors"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/config"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/order"
	"github.com/ncthangg/MiniPos-System/internal/infra/mq"
	"github.com/ncthangg/MiniPos-System/internal/infra/redis"
	"github.com/ncthangg/MiniPos-System/internal/middleware"
	"github.com/ncthangg/MiniPos-System/internal/realtime"
	"github.com/ncthangg/MiniPos-System/internal/repository/mysql"
	"github.com/ncthangg/MiniPos-System/internal/service"
)

// RegisterRoutes 注册所有 HTTP 路由与 WebSocket 端点
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与事务管理
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	txm := mysql.NewTxManager(db)

	// 实时推送：订阅表 + 网关 + 派发器
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, cfg.Realtime.SendBuffer)
	dispatcher := realtime.NewDispatcher(hub, mqConn, cfg.RabbitMQ.OrderExchange)

	productSvc := service.NewProductService(productRepo, redisClient, cfg.Redis.ProductCacheTTLSeconds)
	orderSvc := service.NewOrderService(
		func(ctx context.Context) (service.UnitOfWork, error) { return txm.Begin(ctx) },
		orderRepo,
		productRepo,
		dispatcher,
	)

	// 实时通道（加组/退组控制帧 + 事件推送）
	app.Get("/ws", iris.FromStd(hub))

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{
			"code": 0,
			"msg":  "ok",
		})
	})

	// 在售商品列表
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListActive(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 订单分页查询（排序 + 按 ID 模糊搜索）
	api.Get("/orders", func(ctx iris.Context) {
		params := order.ListParams{
			PageNumber:    ctx.URLParamIntDefault("pageNumber", 1),
			PageSize:      ctx.URLParamIntDefault("pageSize", 10),
			SortField:     ctx.URLParam("sortField"),
			SortDirection: ctx.URLParam("sortDirection"),
			SearchValue:   ctx.URLParam("searchValue"),
		}
		page, err := orderSvc.GetOrders(ctx.Request().Context(), params)
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": page})
	})

	// 订单详情（含订单项与商品名）
	api.Get("/orders/{orderId:string}", func(ctx iris.Context) {
		orderID := ctx.Params().Get("orderId")
		detail, err := orderSvc.GetByID(ctx.Request().Context(), orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "订单不存在: " + orderID})
				return
			}
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": detail})
	})

	// 下单：唯一的订单创建入口
	api.Post("/orders", middleware.CheckoutRateLimit(), func(ctx iris.Context) {
		var req service.CheckoutRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}

		createdBy := ctx.GetHeader("X-Operator")
		if createdBy == "" {
			createdBy = "counter"
		}

		summary, err := orderSvc.CreateOrder(ctx.Request().Context(), &req, createdBy)
		if err != nil {
			if service.IsValidationError(err) {
				ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
				return
			}
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "下单成功", "data": summary})
	})
}
