package server

import (
	"errors"
	"fmt"

	"github.com/kataras/iris/v12"
	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/config"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/base"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
	"github.com/ncthangg/MiniPos-System/internal/infra/redis"
	"github.com/ncthangg/MiniPos-System/internal/repository/mysql"
	"github.com/ncthangg/MiniPos-System/internal/service"
)

// productRequest 后台商品表单
type productRequest struct {
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	ImageURL string `json:"imageUrl"`
	Status   *bool  `json:"status"`
}

func (r *productRequest) applyTo(p *product.Product) error {
	if r.Name == "" {
		return fmt.Errorf("商品名不能为空")
	}
	if r.Price <= 0 {
		return fmt.Errorf("价格必须大于 0")
	}
	p.Name = r.Name
	p.Price = r.Price
	p.ImageURL = r.ImageURL
	if r.Status != nil {
		p.Status = *r.Status
	}
	return nil
}

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与收银前台服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)

	productRepo := mysql.NewProductRepository(db)
	productSvc := service.NewProductService(productRepo, redisClient, cfg.Redis.ProductCacheTTLSeconds)

	api := app.Party("/api")

	// ---------- 商品管理 ----------

	// 商品列表（后台用：含已下架商品）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": list})
	})

	// 创建商品
	api.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		p := &product.Product{}
		p.ID = base.NewID()
		p.Status = true
		if err := req.applyTo(p); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 更新商品
	api.Put("/products/{id:string}", func(ctx iris.Context) {
		id := ctx.Params().Get("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				ctx.StopWithJSON(404, iris.Map{"code": 404, "msg": "商品不存在: " + id})
				return
			}
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}

		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := req.applyTo(p); err != nil {
			ctx.StopWithJSON(400, iris.Map{"code": 400, "msg": err.Error()})
			return
		}
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "data": p})
	})

	// 删除商品
	api.Delete("/products/{id:string}", func(ctx iris.Context) {
		id := ctx.Params().Get("id")
		if err := productSvc.Delete(ctx.Request().Context(), id); err != nil {
			ctx.StopWithJSON(500, iris.Map{"code": 500, "msg": err.Error()})
			return
		}
		ctx.JSON(iris.Map{"code": 0, "msg": "已删除"})
	})

	// ---------- 运行统计 ----------

	api.Get("/stats", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"code": 0, "data": service.GetMonitor().GetStats()})
	})
}
