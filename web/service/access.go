package service

import (
	"github.com/maintainview/maintainview/database/model"
)

// Access policy for tenant-scoped resources. These are pure decision
// functions over already-loaded rows: no side effects, no queries. Every
// request path re-checks them before touching a resource; ambiguity always
// resolves to deny.

// IsOwnTenant reports whether the user may act within the given tenant.
// Admins pass for every tenant; a client passes only for its own.
func IsOwnTenant(user *model.User, clientId int) bool {
	if user == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return user.ClientId != nil && *user.ClientId == clientId
}

// CanAccessSite decides read access to a site.
func CanAccessSite(user *model.User, site *model.Site) bool {
	if site == nil {
		return false
	}
	return IsOwnTenant(user, site.ClientId)
}

// CanAccessRequest decides access to a support request thread.
func CanAccessRequest(user *model.User, req *model.Request) bool {
	if req == nil {
		return false
	}
	return IsOwnTenant(user, req.ClientId)
}

// CanAccessLog decides read access to a maintenance log entry. site must be
// the log's owning site.
func CanAccessLog(user *model.User, log *model.MaintenanceLog, site *model.Site) bool {
	if user == nil || log == nil || site == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return log.IsVisibleToClient && CanAccessSite(user, site)
}

// CanAccessNotice decides read access to a notice. site must be the notice's
// owning site.
func CanAccessNotice(user *model.User, notice *model.Notice, site *model.Site) bool {
	if user == nil || notice == nil || site == nil {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	return notice.IsVisibleToClient && CanAccessSite(user, site)
}

// CanAccessFile decides download access to a shared file. The file's Site
// and Request associations must be preloaded when set. Soft-deleted files
// are unreachable for everyone, admins included; a file owned by neither a
// site nor a request is never reachable for clients.
func CanAccessFile(user *model.User, f *model.SharedFile) bool {
	if user == nil || f == nil || f.IsDeleted {
		return false
	}
	if user.IsAdmin() {
		return true
	}
	if !f.ClientVisible {
		return false
	}
	if f.Site != nil && IsOwnTenant(user, f.Site.ClientId) {
		return true
	}
	if f.Request != nil && IsOwnTenant(user, f.Request.ClientId) {
		return true
	}
	return false
}
