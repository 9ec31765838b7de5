// Package job contains scheduled background jobs of the portal.
package job

import (
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/web/service"
)

// CheckExpiryJob scans active sites once a day and logs every contract,
// domain and SSL deadline inside the alert window, so operators see upcoming
// renewals in the system log without opening the dashboard.
type CheckExpiryJob struct {
	siteService   service.SiteService
	reportService service.ReportService
}

func NewCheckExpiryJob() *CheckExpiryJob {
	return new(CheckExpiryJob)
}

func (j *CheckExpiryJob) Run() {
	sites, err := j.siteService.ListActiveSites(0)
	if err != nil {
		logger.Warning("expiry check: list sites failed:", err)
		return
	}
	alerts, err := j.reportService.CollectExpiryAlerts(sites)
	if err != nil {
		logger.Warning("expiry check: collect alerts failed:", err)
		return
	}
	for _, alert := range alerts {
		if alert.Level == "danger" {
			logger.Warningf("expiry %s for site %q (%s) on %s, %d days left",
				alert.Kind, alert.SiteName, alert.Level, alert.Date, alert.DaysLeft)
		} else {
			logger.Infof("expiry %s for site %q (%s) on %s, %d days left",
				alert.Kind, alert.SiteName, alert.Level, alert.Date, alert.DaysLeft)
		}
	}
}
