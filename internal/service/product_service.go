package service

import (
	"context"
	"encoding/json"
	"log"

	radix "github.com/mediocregopher/radix/v3"

	"github.com/ncthangg/MiniPos-System/internal/datamodels/product"
)

const productCacheKey = "catalog:products:active"

// ProductService 商品目录服务。列表读走 Redis 缓存，
// 目录写操作使缓存失效。redis 为 nil 时退化为直查 DB。
type ProductService struct {
	repo     product.Repository
	redis    radix.Client
	cacheTTL int
}

// NewProductService 创建商品服务
func NewProductService(repo product.Repository, redis radix.Client, cacheTTLSeconds int) *ProductService {
	return &ProductService{
		repo:     repo,
		redis:    redis,
		cacheTTL: cacheTTLSeconds,
	}
}

// ListActive 返回在售商品列表
func (s *ProductService) ListActive(ctx context.Context) ([]*product.Product, error) {
	if s.redis != nil && s.cacheTTL > 0 {
		var cached string
		if err := s.redis.Do(radix.Cmd(&cached, "GET", productCacheKey)); err != nil {
			GetMonitor().RecordRedisError()
			log.Printf("product cache get failed: %v", err)
		} else if cached != "" {
			var list []*product.Product
			if err := json.Unmarshal([]byte(cached), &list); err == nil {
				return list, nil
			}
		}
	}

	list, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if s.redis != nil && s.cacheTTL > 0 {
		if data, err := json.Marshal(list); err == nil {
			if err := s.redis.Do(radix.FlatCmd(nil, "SETEX", productCacheKey, s.cacheTTL, string(data))); err != nil {
				GetMonitor().RecordRedisError()
				log.Printf("product cache set failed: %v", err)
			}
		}
	}
	return list, nil
}

// ListAll 返回全部商品（含下架），后台管理用，不走缓存
func (s *ProductService) ListAll(ctx context.Context) ([]*product.Product, error) {
	return s.repo.ListAll(ctx)
}

// GetByID 查询单个商品
func (s *ProductService) GetByID(ctx context.Context, id string) (*product.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Create 新增商品并使列表缓存失效
func (s *ProductService) Create(ctx context.Context, p *product.Product) error {
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// Update 更新商品并使列表缓存失效
func (s *ProductService) Update(ctx context.Context, p *product.Product) error {
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

// Delete 删除商品并使列表缓存失效
func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache()
	return nil
}

func (s *ProductService) invalidateCache() {
	if s.redis == nil {
		return
	}
	if err := s.redis.Do(radix.Cmd(nil, "DEL", productCacheKey)); err != nil {
		GetMonitor().RecordRedisError()
		log.Printf("product cache invalidate failed: %v", err)
	}
}
