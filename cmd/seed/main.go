package main

import (
	"time"

	"github.com/pricetide/internal/config"
	"github.com/pricetide/internal/constants"
	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/provider"
	"github.com/pricetide/internal/service"

	"github.com/shopspring/decimal"
)

// 演示数据：一组目录商品和三类折扣规则
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	container := provider.NewContainer(cfg)

	items := []models.CatalogItem{
		{ExternalID: "gid://catalog/Product/1001", Title: "Espresso Beans 1kg", Vendor: "roastery", ProductType: "coffee", CollectionID: "col-coffee", Price: money("100.00"), Tags: models.StringArray{"coffee"}},
		{ExternalID: "gid://catalog/Product/1002", Title: "Filter Beans 1kg", Vendor: "roastery", ProductType: "coffee", CollectionID: "col-coffee", Price: money("58.50"), Tags: models.StringArray{"coffee"}},
		{ExternalID: "gid://catalog/Product/2001", Title: "Ceramic Dripper", Vendor: "brewlab", ProductType: "gear", CollectionID: "col-gear", Price: money("39.90")},
		{ExternalID: "gid://catalog/Product/2002", Title: "Gooseneck Kettle", Vendor: "brewlab", ProductType: "gear", CollectionID: "col-gear", Price: money("129.00")},
	}
	for i := range items {
		existing, err := container.CatalogRepo.GetByExternalID(items[i].ExternalID)
		if err != nil {
			stdLog.Fatalf("查询目录商品失败: %v", err)
		}
		if existing != nil {
			continue
		}
		if err := container.CatalogRepo.Create(&items[i]); err != nil {
			stdLog.Fatalf("创建目录商品失败: %v", err)
		}
	}

	now := time.Now()
	soon := now.Add(time.Minute)
	weekLater := now.Add(7 * 24 * time.Hour)
	inputs := []*service.RuleInput{
		{
			Name:       "Coffee week -20%",
			Kind:       constants.RuleKindPercentage,
			Value:      money("20"),
			ScopeType:  constants.ScopeCollection,
			ScopeRefID: "col-coffee",
			StartAt:    &soon,
			EndAt:      &weekLater,
			Timezone:   "UTC",
			TagsAdd:    models.StringArray{"on-sale"},
		},
		{
			Name:       "Brewlab gear 10 off",
			Kind:       constants.RuleKindFixed,
			Value:      money("10"),
			ScopeType:  constants.ScopeVendor,
			ScopeRefID: "brewlab",
			StartAt:    &soon,
			Timezone:   "UTC",
		},
		{
			Name:       "Espresso formula deal",
			Kind:       constants.RuleKindFormula,
			Formula:    "price * 0.9 - 5",
			ScopeType:  constants.ScopeProduct,
			ScopeRefID: "gid://catalog/Product/1001",
		},
	}
	for _, input := range inputs {
		rule, err := container.RuleAdminService.Create(input)
		if err != nil {
			stdLog.Fatalf("创建折扣规则失败 (%s): %v", input.Name, err)
		}
		logger.Infow("seed_rule_created", "rule_id", rule.ID, "name", rule.Name, "status", rule.Status)
	}

	logger.Infow("seed_done", "items", len(items), "rules", len(inputs))
}

func money(value string) models.Money {
	d, err := decimal.NewFromString(value)
	if err != nil {
		panic(err)
	}
	return models.NewMoneyFromDecimal(d)
}
