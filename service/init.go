/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移和各服务的装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/housing_cleanse_req.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 数据库连接失败直接终止进程；Redis锁、Kafka事件、定时审计均为可选组件，未配置时跳过
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs main.go
 */

package service

import (
	"fmt"
	"log"
	"os"

	"housing-cleanse-service/service/cleanse"
	"housing-cleanse-service/service/database"
	"housing-cleanse-service/service/distributed_lock"
	"housing-cleanse-service/service/event"
	"housing-cleanse-service/service/scheduler"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                   *gorm.DB
	GlobalHousingStore   *database.HousingStore
	GlobalCleanseService *cleanse.Service
	GlobalAuditScheduler *scheduler.AuditScheduler
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "postgres")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
}

// initServices 初始化服务
func initServices() {
	GlobalHousingStore = database.NewHousingStore(DB)
	GlobalCleanseService = cleanse.NewService(DB, GlobalHousingStore)

	// 可选：Redis运行锁，多实例部署时防止并发写同一张表
	if os.Getenv("REDIS_HOST") != "" {
		lock, err := distributed_lock.NewRedisLock()
		if err != nil {
			log.Printf("Redis运行锁初始化失败，继续以无锁模式运行: %v", err)
		} else {
			GlobalCleanseService.SetRunLock(lock)
		}
	}

	// 可选：Kafka运行完成事件
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		publisher := event.NewRunPublisher(brokers, os.Getenv("KAFKA_RUN_TOPIC"))
		GlobalCleanseService.SetPublisher(publisher)
	}

	// 可选：定时演练审计
	if spec := os.Getenv("AUDIT_CRON"); spec != "" {
		GlobalAuditScheduler = scheduler.NewAuditScheduler(GlobalCleanseService, spec)
		if err := GlobalAuditScheduler.Start(); err != nil {
			log.Printf("启动审计调度器失败: %v", err)
		}
	}

	log.Println("服务初始化完成")
}
