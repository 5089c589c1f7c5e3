package mysql

import (
	"log"

	"gorm.io/gorm"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/base"
	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

// 默认菜单，首次启动时写入，已有同名商品时只同步价格
var seedProducts = []struct {
	Name     string
	Price    int64
	ImageURL string
}{
	{"Cà Phê Đen", 30000, "/assets/img/ca-phe-den.jpg"},
	{"Cà Phê Sữa", 35000, "/assets/img/ca-phe-sua.jpg"},
	{"Bạc Xỉu", 40000, "/assets/img/bac-xiu.jpg"},
	{"Trà Đào", 45000, "/assets/img/tra-dao.jpg"},
	{"Trà Sữa Trân Châu", 50000, "/assets/img/tra-sua.jpg"},
	{"Sinh Tố Bơ", 55000, "/assets/img/sinh-to-bo.jpg"},
	{"Nước Cam Ép", 40000, "/assets/img/nuoc-cam.jpg"},
	{"Bánh Mì Pate", 25000, "/assets/img/banh-mi.jpg"},
}

// SeedProducts 初始化默认商品目录
func SeedProducts(db *gorm.DB) error {
	var existing []*product.Product
	if err := db.Find(&existing).Error; err != nil {
		return err
	}
	byName := make(map[string]*product.Product, len(existing))
	for _, p := range existing {
		byName[p.Name] = p
	}

	for _, seed := range seedProducts {
		if p, ok := byName[seed.Name]; ok {
			if p.Price != seed.Price {
				p.Price = seed.Price
				if err := db.Save(p).Error; err != nil {
					return err
				}
			}
			continue
		}
		p := &product.Product{
			Name:     seed.Name,
			Price:    seed.Price,
			ImageURL: seed.ImageURL,
		}
		p.ID = base.NewID()
		p.CreatedBy = "system"
		p.Status = true
		if err := db.Create(p).Error; err != nil {
			return err
		}
	}
	log.Printf("seeded product catalog, %d entries", len(seedProducts))
	return nil
}
