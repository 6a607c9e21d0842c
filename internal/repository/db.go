package repository

import (
	"fmt"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens the MySQL connection pool, runs migrations and seeds the
// promotional redeem codes.
func NewDB(dsn string, maxIdleConns, maxOpenConns int) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetMaxOpenConns(maxOpenConns)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates the schema and seeds the default redeem codes.
// Uniqueness of short codes, redeem codes and (user, code) redemption
// pairs is enforced here by unique indexes; application-level checks
// are advisory only.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Link{},
		&model.ClickEvent{},
		&model.RedeemCode{},
		&model.Redemption{},
		&model.UserCredits{},
		&model.SMSMessage{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return seedRedeemCodes(db)
}

func seedRedeemCodes(db *gorm.DB) error {
	seeds := []model.RedeemCode{
		{Code: "Madara", Credits: 10, Active: true},
		{Code: "EllonMusk", Credits: 50, Active: true},
		{Code: "CarlitosM", Credits: 1000, Active: true},
		{Code: "INC", Credits: 2, Active: true},
	}
	for i := range seeds {
		var existing model.RedeemCode
		err := db.Where("code = ?", seeds[i].Code).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return fmt.Errorf("failed to seed redeem codes: %w", err)
		}
		seeds[i].ID, err = utils.GenerateID()
		if err != nil {
			return fmt.Errorf("failed to seed redeem codes: %w", err)
		}
		if err := db.Create(&seeds[i]).Error; err != nil {
			return fmt.Errorf("failed to seed redeem codes: %w", err)
		}
	}
	return nil
}

// CloseDB closes the underlying connection pool
func CloseDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
