package models

import "gorm.io/gorm"

// Migrate 自動遷移所有資料表
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&GiftRule{},
		&GiftRuleCategory{},
		&GiftRulePurchasable{},
		&GiftRuleUserGroup{},
		&Order{},
		&LineItem{},
		&Purchasable{},
		&ProductCategory{},
		&UserGroupMembership{},
	)
}
