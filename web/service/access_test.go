package service

import (
	"testing"

	"github.com/maintainview/maintainview/database/model"
)

func clientUser(clientId int) *model.User {
	return &model.User{Id: 2, Role: model.RoleClient, ClientId: &clientId, IsActive: true}
}

var adminUser = &model.User{Id: 1, Role: model.RoleAdmin, IsActive: true}

func TestIsOwnTenant(t *testing.T) {
	tests := []struct {
		name     string
		user     *model.User
		clientId int
		want     bool
	}{
		{"nil user", nil, 1, false},
		{"admin any tenant", adminUser, 99, true},
		{"client own tenant", clientUser(5), 5, true},
		{"client foreign tenant", clientUser(5), 6, false},
		{"client without tenant", &model.User{Role: model.RoleClient}, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOwnTenant(tt.user, tt.clientId); got != tt.want {
				t.Errorf("IsOwnTenant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanAccessSite(t *testing.T) {
	site := &model.Site{Id: 10, ClientId: 5}

	if !CanAccessSite(adminUser, site) {
		t.Error("admin denied")
	}
	if !CanAccessSite(clientUser(5), site) {
		t.Error("owning client denied")
	}
	if CanAccessSite(clientUser(6), site) {
		t.Error("foreign client allowed")
	}
	if CanAccessSite(adminUser, nil) {
		t.Error("nil site allowed")
	}
}

func TestCanAccessLog(t *testing.T) {
	site := &model.Site{Id: 10, ClientId: 5}
	visible := &model.MaintenanceLog{SiteId: 10, IsVisibleToClient: true}
	hidden := &model.MaintenanceLog{SiteId: 10, IsVisibleToClient: false}

	if !CanAccessLog(adminUser, hidden, site) {
		t.Error("admin denied a hidden log")
	}
	if !CanAccessLog(clientUser(5), visible, site) {
		t.Error("owning client denied a visible log")
	}
	if CanAccessLog(clientUser(5), hidden, site) {
		t.Error("hidden log leaked to client")
	}
	if CanAccessLog(clientUser(6), visible, site) {
		t.Error("visible log leaked across tenants")
	}
}

func TestCanAccessFile(t *testing.T) {
	ownSite := &model.Site{Id: 10, ClientId: 5}
	foreignSite := &model.Site{Id: 20, ClientId: 6}
	ownRequest := &model.Request{Id: 30, ClientId: 5}

	tests := []struct {
		name string
		user *model.User
		file *model.SharedFile
		want bool
	}{
		{"nil file", clientUser(5), nil, false},
		{"admin site file", adminUser, &model.SharedFile{Site: ownSite, ClientVisible: false}, true},
		{"admin deleted file", adminUser, &model.SharedFile{Site: ownSite, IsDeleted: true}, false},
		{"client own visible site file", clientUser(5), &model.SharedFile{Site: ownSite, ClientVisible: true}, true},
		{"client own hidden site file", clientUser(5), &model.SharedFile{Site: ownSite, ClientVisible: false}, false},
		{"client foreign site file", clientUser(5), &model.SharedFile{Site: foreignSite, ClientVisible: true}, false},
		{"client own request file", clientUser(5), &model.SharedFile{Request: ownRequest, ClientVisible: true}, true},
		{"client unbound file", clientUser(5), &model.SharedFile{ClientVisible: true}, false},
		{"client deleted file", clientUser(5), &model.SharedFile{Site: ownSite, ClientVisible: true, IsDeleted: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessFile(tt.user, tt.file); got != tt.want {
				t.Errorf("CanAccessFile() = %v, want %v", got, tt.want)
			}
		})
	}
}
