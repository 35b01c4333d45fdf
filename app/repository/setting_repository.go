package repository

import (
	"errors"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/profeds/advisor-dashboard/app/models"
)

// settingRepository implements the SettingRepository interface
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new setting repository instance
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) GetString(key, def string) (string, error) {
	var setting models.Setting
	err := r.db.Where("setting_key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	return setting.Value, nil
}

func (r *settingRepository) GetBool(key string, def bool) (bool, error) {
	raw, err := r.GetString(key, "")
	if err != nil {
		return def, err
	}
	switch raw {
	case "":
		return def, nil
	case "1", "true":
		return true, nil
	default:
		return false, nil
	}
}

func (r *settingRepository) GetInt(key string, def int) (int, error) {
	raw, err := r.GetString(key, "")
	if err != nil || raw == "" {
		return def, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return def, nil
	}
	return n, nil
}

func (r *settingRepository) set(key, value, typ string) error {
	setting := models.Setting{Key: key, Value: value, Type: typ}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
	}).Create(&setting).Error
}

func (r *settingRepository) SetString(key, value string) error {
	return r.set(key, value, "string")
}

func (r *settingRepository) SetBool(key string, value bool) error {
	raw := "0"
	if value {
		raw = "1"
	}
	return r.set(key, raw, "boolean")
}

func (r *settingRepository) SetInt(key string, value int) error {
	return r.set(key, strconv.Itoa(value), "integer")
}

func (r *settingRepository) DeleteKey(key string) error {
	return r.db.Where("setting_key = ?", key).Delete(&models.Setting{}).Error
}
