package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/util/random"
)

// defaultValueMap holds the value used for any setting key with no row in the
// settings table. The secret default is generated once per fresh database and
// then persisted, so session cookies survive restarts.
var defaultValueMap = map[string]string{
	"webListen":        "",
	"webDomain":        "",
	"webPort":          "8080",
	"webBasePath":      "/",
	"secret":           random.Seq(32),
	"readOnlyMode":     "false",
	"maxUploadMB":      "10",
	"alertWarningDays": "30",
	"alertDangerDays":  "7",
	"timeLocation":     "Asia/Tokyo",

	// Feature flags for client-facing sections
	"show_contract_info":   "true",
	"show_renewal_date":    "true",
	"show_domain_expire":   "true",
	"show_ssl_expire":      "true",
	"show_notice":          "true",
	"show_maintenance_log": "true",
	"show_monthly_report":  "true",
	"show_requests":        "true",
	"show_files":           "true",
	"show_top_cards":       "true",

	// Display labels, editable per installation
	"label_log":            "保守ログ",
	"label_report":         "作業報告",
	"label_next_plan":      "次回予定",
	"label_caution":        "注意事項",
	"label_contract_info":  "契約情報",
	"label_renewal_date":   "更新予定日",
	"label_domain_expire":  "ドメイン期限",
	"label_ssl_expire":     "安全証明書の期限（SSL）",
	"label_monthly_report": "月次レポート",
	"label_request":        "依頼",
	"label_files":          "資料・ファイル",
	"status_new":           "受付済み",
	"status_in_progress":   "対応中",
	"status_done":          "完了",
}

// allowedUploadExtensions is the upload allowlist, lowercase with dot.
var allowedUploadExtensions = map[string]bool{
	".pdf": true, ".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".txt": true, ".csv": true, ".xlsx": true,
}

type SettingService struct{}

func (s *SettingService) getSetting(key string) (*model.Setting, error) {
	db := database.GetDB()
	setting := &model.Setting{}
	err := db.Model(model.Setting{}).Where("key = ?", key).First(setting).Error
	if err != nil {
		return nil, err
	}
	return setting, nil
}

func (s *SettingService) saveSetting(key string, value string) error {
	setting, err := s.getSetting(key)
	db := database.GetDB()
	if database.IsNotFound(err) {
		return db.Create(&model.Setting{
			Key:   key,
			Value: value,
		}).Error
	} else if err != nil {
		return err
	}
	setting.Value = value
	return db.Save(setting).Error
}

func (s *SettingService) getString(key string) (string, error) {
	setting, err := s.getSetting(key)
	if database.IsNotFound(err) {
		value, ok := defaultValueMap[key]
		if !ok {
			return "", common.NewErrorf("key <%s> not in defaultValueMap", key)
		}
		return value, nil
	} else if err != nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *SettingService) getBool(key string) (bool, error) {
	str, err := s.getString(key)
	if err != nil {
		return false, err
	}
	return strconv.ParseBool(str)
}

func (s *SettingService) getInt(key string) (int, error) {
	str, err := s.getString(key)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(str)
}

func (s *SettingService) GetListen() (string, error) {
	return s.getString("webListen")
}

func (s *SettingService) GetWebDomain() (string, error) {
	return s.getString("webDomain")
}

func (s *SettingService) GetPort() (int, error) {
	return s.getInt("webPort")
}

// GetSecret returns the server secret, persisting the generated default on
// first use so that signed cookies keep verifying across restarts.
func (s *SettingService) GetSecret() (string, error) {
	secret, err := s.getString("secret")
	if err != nil {
		return "", err
	}
	if _, err := s.getSetting("secret"); database.IsNotFound(err) {
		if err := s.saveSetting("secret", secret); err != nil {
			logger.Warning("save secret failed:", err)
		}
	}
	return secret, nil
}

// GetBasePath returns the base path with leading and trailing slash.
func (s *SettingService) GetBasePath() (string, error) {
	basePath, err := s.getString("webBasePath")
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	if !strings.HasSuffix(basePath, "/") {
		basePath += "/"
	}
	return basePath, nil
}

func (s *SettingService) GetReadOnlyMode() (bool, error) {
	return s.getBool("readOnlyMode")
}

// SetReadOnlyMode persists the flag and flips the storage-layer guard. The
// setting row is written before the guard engages so that disabling demo
// mode is also possible through this path.
func (s *SettingService) SetReadOnlyMode(enabled bool) error {
	if !enabled {
		database.SetReadOnly(false)
	}
	if err := s.saveSetting("readOnlyMode", strconv.FormatBool(enabled)); err != nil {
		return err
	}
	database.SetReadOnly(enabled)
	return nil
}

func (s *SettingService) GetMaxUploadBytes() (int64, error) {
	mb, err := s.getInt("maxUploadMB")
	if err != nil {
		return 0, err
	}
	return int64(mb) * 1024 * 1024, nil
}

// IsAllowedUploadExtension checks an extension (with dot, any case) against
// the allowlist.
func (s *SettingService) IsAllowedUploadExtension(ext string) bool {
	return allowedUploadExtensions[strings.ToLower(ext)]
}

func (s *SettingService) GetAlertWarningDays() (int, error) {
	return s.getInt("alertWarningDays")
}

func (s *SettingService) GetAlertDangerDays() (int, error) {
	return s.getInt("alertDangerDays")
}

func (s *SettingService) GetTimeLocation() (*time.Location, error) {
	l, err := s.getString("timeLocation")
	if err != nil {
		return nil, err
	}
	return time.LoadLocation(l)
}

// IsFeatureEnabled reports a show_* flag; unknown keys are disabled.
func (s *SettingService) IsFeatureEnabled(key string) bool {
	if !strings.HasPrefix(key, "show_") {
		return false
	}
	enabled, err := s.getBool(key)
	if err != nil {
		logger.Warning("read feature flag failed:", err)
		return false
	}
	return enabled
}

// GetFeatureFlags returns every show_* flag with defaults applied.
func (s *SettingService) GetFeatureFlags() map[string]bool {
	flags := make(map[string]bool)
	for key := range defaultValueMap {
		if strings.HasPrefix(key, "show_") {
			flags[key] = s.IsFeatureEnabled(key)
		}
	}
	return flags
}

// GetDisplayLabels returns every label_* and status_* setting with defaults
// applied.
func (s *SettingService) GetDisplayLabels() map[string]string {
	labels := make(map[string]string)
	for key := range defaultValueMap {
		if strings.HasPrefix(key, "label_") || strings.HasPrefix(key, "status_") {
			value, err := s.getString(key)
			if err != nil {
				continue
			}
			labels[key] = value
		}
	}
	return labels
}

// UpdatePortalSettings stores submitted feature flags and labels. Only keys
// present in the defaults are accepted.
func (s *SettingService) UpdatePortalSettings(flags map[string]bool, labels map[string]string) error {
	for key, value := range flags {
		if _, ok := defaultValueMap[key]; !ok || !strings.HasPrefix(key, "show_") {
			continue
		}
		if err := s.saveSetting(key, strconv.FormatBool(value)); err != nil {
			return err
		}
	}
	for key, value := range labels {
		if _, ok := defaultValueMap[key]; !ok {
			continue
		}
		if !strings.HasPrefix(key, "label_") && !strings.HasPrefix(key, "status_") {
			continue
		}
		if value == "" {
			continue
		}
		if err := s.saveSetting(key, value); err != nil {
			return err
		}
	}
	return nil
}
