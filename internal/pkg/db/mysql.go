package db

import (
	"strconv"
	"time"

	"github.com/BasicCode11/Backend-EC-sub000/internal/pkg/config"

	driver "github.com/go-sql-driver/mysql"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to MySQL via GORM using the configured credentials.
func Open(cfg *config.Config) (*gorm.DB, error) {
	mc := driver.NewConfig()
	mc.User = cfg.Infra.MySQL.User
	mc.Passwd = cfg.Infra.MySQL.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Infra.MySQL.Host
	if cfg.Infra.MySQL.Port != 0 {
		mc.Addr = cfg.Infra.MySQL.Host + ":" + strconv.Itoa(cfg.Infra.MySQL.Port)
	}
	mc.DBName = cfg.Infra.MySQL.Database
	mc.ParseTime = true
	mc.Loc = time.UTC

	gdb, err := gorm.Open(gormmysql.Open(mc.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return gdb, nil
}
