package service

import (
	"time"

	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/web/entity"
)

const monthLayout = "2006-01"

// ReportService aggregates the client monthly report and the expiry alerts
// shown on both dashboards.
type ReportService struct {
	settingService SettingService
	logService     MaintenanceLogService
	noticeService  NoticeService
	siteService    SiteService
}

// MonthRange parses a "YYYY-MM" month into its [start, end) range in the
// configured timezone.
func (s *ReportService) MonthRange(month string) (time.Time, time.Time, error) {
	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation(monthLayout, month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, common.NewErrorf("invalid month %q", month)
	}
	return start, start.AddDate(0, 1, 0), nil
}

// PrevNextMonth returns the neighbouring months of a parsed month start.
func (s *ReportService) PrevNextMonth(start time.Time) (string, string) {
	return start.AddDate(0, -1, 0).Format(monthLayout),
		start.AddDate(0, 1, 0).Format(monthLayout)
}

// CurrentMonth returns today's month in the configured timezone.
func (s *ReportService) CurrentMonth() (string, error) {
	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return "", err
	}
	return time.Now().In(loc).Format(monthLayout), nil
}

// alertLevel classifies a deadline against the configured thresholds.
// Overdue dates stay at danger; dates beyond the warning window report "".
// Days are counted between calendar dates, so the time of day on either
// side never shifts a deadline across a threshold.
func alertLevel(date time.Time, now time.Time, warningDays int, dangerDays int) (string, int) {
	daysLeft := int(dateOnly(date).Sub(dateOnly(now)).Hours() / 24)
	switch {
	case daysLeft <= dangerDays:
		return "danger", daysLeft
	case daysLeft <= warningDays:
		return "warning", daysLeft
	default:
		return "", daysLeft
	}
}

// dateOnly maps an instant to its calendar day, anchored in UTC so that two
// normalized dates always differ by a whole number of days.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CollectExpiryAlerts scans sites for renewal, domain and SSL dates inside
// the warning window, danger entries first.
func (s *ReportService) CollectExpiryAlerts(sites []model.Site) ([]entity.ExpiryAlert, error) {
	warningDays, err := s.settingService.GetAlertWarningDays()
	if err != nil {
		return nil, err
	}
	dangerDays, err := s.settingService.GetAlertDangerDays()
	if err != nil {
		return nil, err
	}
	loc, err := s.settingService.GetTimeLocation()
	if err != nil {
		return nil, err
	}
	now := time.Now().In(loc)

	alerts := make([]entity.ExpiryAlert, 0)
	appendAlert := func(site model.Site, kind string, date *time.Time) {
		if date == nil {
			return
		}
		level, daysLeft := alertLevel(*date, now, warningDays, dangerDays)
		if level == "" {
			return
		}
		alerts = append(alerts, entity.ExpiryAlert{
			SiteId:   site.Id,
			SiteName: site.Name,
			Kind:     kind,
			Date:     date.Format(time.DateOnly),
			Level:    level,
			DaysLeft: daysLeft,
		})
	}
	for _, site := range sites {
		appendAlert(site, "renewal", site.RenewalDate)
		appendAlert(site, "domain", site.DomainExpireDate)
		appendAlert(site, "ssl", site.SslExpireDate)
	}

	// danger before warning, closest deadline first within each level
	for i := 0; i < len(alerts); i++ {
		for j := i + 1; j < len(alerts); j++ {
			a, b := alerts[i], alerts[j]
			if (b.Level == "danger" && a.Level != "danger") ||
				(a.Level == b.Level && b.DaysLeft < a.DaysLeft) {
				alerts[i], alerts[j] = b, a
			}
		}
	}
	return alerts, nil
}

// BuildMonthlyReport assembles one client's report page for a month.
func (s *ReportService) BuildMonthlyReport(clientId int, month string) (*entity.MonthlyReport, error) {
	start, end, err := s.MonthRange(month)
	if err != nil {
		return nil, err
	}
	prev, next := s.PrevNextMonth(start)

	logs, err := s.logService.ListVisibleClientLogs(clientId, start, end)
	if err != nil {
		return nil, err
	}

	importantLogs := make([]model.MaintenanceLog, 0, 5)
	categoryCounts := make(map[string]int)
	for _, log := range logs {
		if log.IsImportant && len(importantLogs) < 5 {
			importantLogs = append(importantLogs, log)
		}
		category := log.Category
		if category == "" {
			category = "other"
		}
		categoryCounts[category]++
	}

	notices, err := s.noticeService.ListActiveClientNotices(clientId, start, end)
	if err != nil {
		return nil, err
	}

	sites, err := s.siteService.ListActiveSites(clientId)
	if err != nil {
		return nil, err
	}

	alerts, err := s.CollectExpiryAlerts(sites)
	if err != nil {
		return nil, err
	}

	return &entity.MonthlyReport{
		Month:          month,
		PrevMonth:      prev,
		NextMonth:      next,
		Logs:           logs,
		ImportantLogs:  importantLogs,
		CategoryCounts: categoryCounts,
		Notices:        notices,
		Sites:          sites,
		Alerts:         alerts,
	}, nil
}
