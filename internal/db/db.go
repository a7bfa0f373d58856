package db

import (
	"log"
	"os"

	"campusnex/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Init() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// Fallback for local dev if not set
		dsn = "host=localhost user=postgres password=postgres dbname=campusnex port=5432 sslmode=disable"
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	log.Println("Database connection established")

	// Auto Migrate
	err = DB.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Event{},
		&models.RSVP{},
		&models.Review{},
		// 积分相关模型
		&models.ActivityRecord{},
		&models.UserStats{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	// Seed initial categories
	seedCategories()
}

func seedCategories() {
	// 检查是否已有分类数据
	var count int64
	DB.Model(&models.Category{}).Count(&count)
	if count > 0 {
		log.Println("Categories already seeded, skipping")
		return
	}

	// 创建预设活动分类
	categories := []models.Category{
		{Name: "Academic", Description: "Lectures, workshops and study groups"},
		{Name: "Social", Description: "Mixers, parties and meetups"},
		{Name: "Sports", Description: "Games, tournaments and fitness"},
		{Name: "Culture", Description: "Performances, exhibitions and festivals"},
		{Name: "Career", Description: "Job fairs, info sessions and networking"},
	}

	for _, category := range categories {
		if err := DB.Create(&category).Error; err != nil {
			log.Printf("Failed to create category %s: %v", category.Name, err)
		}
	}
	log.Println("Initial categories created successfully")
}
