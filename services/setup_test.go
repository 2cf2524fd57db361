package services

import (
	"context"
	"testing"

	"gift_with_purchase/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	// :memory: 每個連線各自一個資料庫
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	// 自動遷移數據庫表
	if err := models.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func interactiveCtx(customerID *int64) context.Context {
	return WithSession(context.Background(), Session{Interactive: true, CustomerID: customerID})
}

func int64Ptr(v int64) *int64 { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func createPurchasable(t *testing.T, db *gorm.DB, sku string, price string, productID *int64) *models.Purchasable {
	t.Helper()
	p := &models.Purchasable{SKU: sku, Price: dec(price), ProductID: productID}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("Failed to create purchasable: %v", err)
	}
	return p
}
