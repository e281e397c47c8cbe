// 手动导入模块内容脚本
//
// 与启动参数 -seed 作用相同，适合在不启动服务的情况下初始化题库。
// 已存在的同名模块会被跳过，可以重复执行。
//
// 用法: go run scripts/seed_modules.go [configs/seed_modules.yaml]

package main

import (
	"context"
	"log"
	"os"

	"quiz_backend/internal/config"
	"quiz_backend/internal/repository"
	"quiz_backend/internal/service"
	"quiz_backend/pkg/database"
	"quiz_backend/pkg/logger"
)

func main() {
	seedFile := "configs/seed_modules.yaml"
	if len(os.Args) > 1 {
		seedFile = os.Args[1]
	}

	cfg, err := config.LoadConfig("configs")
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, true)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	content := service.NewContentService(repository.NewContentRepository(db))

	log.Printf("导入模块: %s", seedFile)
	n, err := content.LoadSeedFile(context.Background(), seedFile)
	if err != nil {
		log.Fatalf("导入失败: %v", err)
	}
	log.Printf("完成！新增 %d 个模块", n)
}
