// 手动重算测验作答分数
//
// 分数在每次保存或删除答案时同步计算。若写分数时失败，或题目分值被修改，
// 可用此脚本从现有答案重新计算。
//
// 用法: go run scripts/rescore_attempts.go [-config configs/config.yaml] [-attempt 42]

package main

import (
	"context"
	"flag"
	"lms_backend/internal/config"
	"lms_backend/internal/repository"
	"lms_backend/internal/service"
	"lms_backend/pkg/database"
	"lms_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	Server   config.ServerConfig   `yaml:"server"`
	Database config.DatabaseConfig `yaml:"database"`
}

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	attemptID := flag.Uint("attempt", 0, "只重算指定的作答，0 表示全部")
	batch := flag.Int("batch", 100, "每批读取的作答数")
	flag.Parse()

	data, err := os.ReadFile(*configPath)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	cfg := &config.Config{Server: fc.Server, Database: fc.Database}
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, false, false)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	answers := service.NewQuizAnswerService(
		repository.NewQuizAnswerRepository(db),
		repository.NewQuizAttemptRepository(db),
		repository.NewLessonRepository(db),
		service.NewMemoryAttemptLocker(),
		db,
	)

	ctx := context.Background()
	if *attemptID > 0 {
		res, err := answers.RescoreAttempt(ctx, uint(*attemptID))
		if err != nil {
			log.Fatalf("重算失败: %v", err)
		}
		log.Printf("作答 %d: %.2f / %.2f (%.2f)", *attemptID, res.EarnedPoints, res.TotalPoints, res.ScoreScaled10)
		return
	}

	log.Println("开始重算全部作答...")
	n, err := answers.RescoreAll(ctx, *batch)
	if err != nil {
		log.Fatalf("已重算 %d 条后失败: %v", n, err)
	}
	log.Printf("完成！共重算 %d 条作答", n)
}
