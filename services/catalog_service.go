package services

import (
	"context"
	"errors"

	"gift_with_purchase/models"

	"gorm.io/gorm"
)

// CatalogService 提供商品價格、商品分類及會員群組查詢
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) Purchasable(ctx context.Context, id int64) (*models.Purchasable, error) {
	p := &models.Purchasable{}
	if err := s.db.WithContext(ctx).First(p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchasableNotFound
		}
		return nil, err
	}
	return p, nil
}

// RelatedCategoryIDs 回傳商品規格所屬商品的分類；沒有所屬商品則沒有分類
func (s *CatalogService) RelatedCategoryIDs(ctx context.Context, purchasableID int64) ([]int64, error) {
	p, err := s.Purchasable(ctx, purchasableID)
	if err != nil {
		return nil, err
	}
	if p.ProductID == nil {
		return nil, nil
	}

	var ids []int64
	err = s.db.WithContext(ctx).Model(&models.ProductCategory{}).
		Where("product_id = ?", *p.ProductID).
		Pluck("category_id", &ids).Error
	return ids, err
}

func (s *CatalogService) GroupsForUser(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := s.db.WithContext(ctx).Model(&models.UserGroupMembership{}).
		Where("user_id = ?", userID).
		Pluck("user_group_id", &ids).Error
	return ids, err
}

// ExistingPurchasableIDs 回傳 ids 中確實存在的商品規格
func (s *CatalogService) ExistingPurchasableIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []int64
	if err := s.db.WithContext(ctx).Model(&models.Purchasable{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}
