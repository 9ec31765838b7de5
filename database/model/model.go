// Package model defines the database entities of the MaintainView portal.
package model

import "time"

// Client is the tenant: every client-role user and every site belong to
// exactly one Client, and the access policy isolates data along this edge.
type Client struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name         string    `json:"name" gorm:"not null"`
	DisplayName  string    `json:"displayName"`
	ClientMemo   string    `json:"clientMemo"`
	InternalMemo string    `json:"-"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Site is a managed website with its contract and expiry dates.
type Site struct {
	Id                int        `json:"id" gorm:"primaryKey;autoIncrement"`
	ClientId          int        `json:"clientId" gorm:"not null;index"`
	Client            *Client    `json:"client,omitempty" gorm:"foreignKey:ClientId"`
	Name              string     `json:"name" gorm:"not null"`
	Url               string     `json:"url"`
	ContractType      string     `json:"contractType"`
	ContractStartDate *time.Time `json:"contractStartDate"`
	ContractEndDate   *time.Time `json:"contractEndDate"`
	RenewalDate       *time.Time `json:"renewalDate"`
	DomainExpireDate  *time.Time `json:"domainExpireDate"`
	SslExpireDate     *time.Time `json:"sslExpireDate"`
	ClientNote        string     `json:"clientNote"`
	InternalNote      string     `json:"-"`
	IsActive          bool       `json:"isActive"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type MaintenanceLog struct {
	Id                int       `json:"id" gorm:"primaryKey;autoIncrement"`
	SiteId            int       `json:"siteId" gorm:"not null;index"`
	Site              *Site     `json:"site,omitempty" gorm:"foreignKey:SiteId"`
	PerformedAt       time.Time `json:"performedAt" gorm:"not null"`
	Category          string    `json:"category"`
	Summary           string    `json:"summary" gorm:"not null"`
	Details           string    `json:"details"`
	InternalNote      string    `json:"-"`
	IsVisibleToClient bool      `json:"isVisibleToClient"`
	IsImportant       bool      `json:"isImportant"`
	CreatedById       *int      `json:"createdById"`
	RelatedRequestId  *int      `json:"relatedRequestId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

type Notice struct {
	Id                int        `json:"id" gorm:"primaryKey;autoIncrement"`
	SiteId            int        `json:"siteId" gorm:"not null;index"`
	Site              *Site      `json:"site,omitempty" gorm:"foreignKey:SiteId"`
	Title             string     `json:"title" gorm:"not null"`
	Body              string     `json:"body"`
	StartDate         *time.Time `json:"startDate"`
	EndDate           *time.Time `json:"endDate"`
	IsVisibleToClient bool       `json:"isVisibleToClient"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

type LogTemplate struct {
	Id        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"not null"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	Details   string    `json:"details"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Request statuses and priorities.
const (
	RequestStatusNew        = "new"
	RequestStatusInProgress = "in_progress"
	RequestStatusDone       = "done"

	RequestPriorityNormal = "normal"
	RequestPriorityHigh   = "high"
)

// Request is a support request raised by a client, optionally bound to one
// site (nil SiteId means the whole account).
type Request struct {
	Id           int       `json:"id" gorm:"primaryKey;autoIncrement"`
	ClientId     int       `json:"clientId" gorm:"not null;index"`
	Client       *Client   `json:"client,omitempty" gorm:"foreignKey:ClientId"`
	SiteId       *int      `json:"siteId"`
	Site         *Site     `json:"site,omitempty" gorm:"foreignKey:SiteId"`
	Subject      string    `json:"subject" gorm:"not null"`
	Body         string    `json:"body"`
	Priority     string    `json:"priority" gorm:"default:normal"`
	Status       string    `json:"status" gorm:"default:new;index"`
	InternalNote string    `json:"-"`
	CreatedById  int       `json:"createdById"`
	AssignedToId *int      `json:"assignedToId"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type RequestMessage struct {
	Id           int         `json:"id" gorm:"primaryKey;autoIncrement"`
	RequestId    int         `json:"requestId" gorm:"not null;index"`
	AuthorUserId int         `json:"authorUserId"`
	AuthorRole   string      `json:"authorRole"`
	Body         string      `json:"body"`
	SharedFileId *int        `json:"sharedFileId"`
	SharedFile   *SharedFile `json:"sharedFile,omitempty" gorm:"foreignKey:SharedFileId"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// SharedFile is an uploaded document owned by a site or a request. Deleted
// files are soft-deleted so download tokens in old pages fail closed instead
// of dangling.
type SharedFile struct {
	Id               int       `json:"id" gorm:"primaryKey;autoIncrement"`
	SiteId           *int      `json:"siteId" gorm:"index"`
	Site             *Site     `json:"site,omitempty" gorm:"foreignKey:SiteId"`
	RequestId        *int      `json:"requestId" gorm:"index"`
	Request          *Request  `json:"request,omitempty" gorm:"foreignKey:RequestId"`
	UploadedById     int       `json:"uploadedById"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	OriginalFilename string    `json:"originalFilename" gorm:"not null"`
	StoredPath       string    `json:"-" gorm:"not null"`
	SizeBytes        int64     `json:"sizeBytes"`
	ContentType      string    `json:"contentType"`
	ClientVisible    bool      `json:"clientVisible"`
	IsDeleted        bool      `json:"isDeleted"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Setting is a key/value row backing SettingService.
type Setting struct {
	Id    int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Key   string `json:"key" gorm:"uniqueIndex;not null"`
	Value string `json:"value"`
}
