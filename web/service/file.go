package service

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/maintainview/maintainview/config"
	"github.com/maintainview/maintainview/database"
	"github.com/maintainview/maintainview/database/model"
	"github.com/maintainview/maintainview/logger"
	"github.com/maintainview/maintainview/util/common"
	"github.com/maintainview/maintainview/util/signer"

	"github.com/google/uuid"
)

// fileTokenSalt namespaces download tokens away from session cookies; the
// two share the server secret but never the derived key.
const fileTokenSalt = "maintainview-file"

// fileTokens is set once at startup from the server secret and only read
// during request handling.
var fileTokens *signer.Signer

// InitFileTokens derives the download-token codec. Called at startup and
// from test setup.
func InitFileTokens(secret string) {
	fileTokens = signer.New(secret, fileTokenSalt)
}

// ErrExtensionNotAllowed rejects an upload by file extension.
type ErrExtensionNotAllowed struct {
	Ext string
}

func (e ErrExtensionNotAllowed) Error() string {
	return "file extension not allowed: " + e.Ext
}

// ErrFileTooLarge rejects an upload over the size cap.
type ErrFileTooLarge struct {
	MaxBytes int64
}

func (e ErrFileTooLarge) Error() string {
	return "file too large"
}

type FileService struct {
	settingService SettingService
}

// IssueToken converts a file id into an opaque download token. Tokens carry
// no expiry; permission is re-checked by the access policy on every resolve.
func (s *FileService) IssueToken(fileId int) string {
	return fileTokens.EncodeID(uint(fileId))
}

// ResolveToken reverses IssueToken. Tampered, truncated or foreign tokens
// (including valid session cookies) resolve to false.
func (s *FileService) ResolveToken(token string) (int, bool) {
	id, ok := fileTokens.DecodeID(token)
	if !ok {
		return 0, false
	}
	return int(id), true
}

// GetFile loads a shared file with its owning site and request, as the
// access policy needs them.
func (s *FileService) GetFile(id int) (*model.SharedFile, error) {
	db := database.GetDB()
	f := &model.SharedFile{}
	err := db.Model(model.SharedFile{}).
		Preload("Site").
		Preload("Request").
		Where("id = ?", id).
		First(f).
		Error
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListSiteFiles lists a site's files for the admin surface; soft-deleted
// rows are included only on demand.
func (s *FileService) ListSiteFiles(siteId int, includeDeleted bool) ([]model.SharedFile, error) {
	db := database.GetDB()
	files := make([]model.SharedFile, 0)
	query := db.Model(model.SharedFile{}).Where("site_id = ?", siteId)
	if !includeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	err := query.Order("id desc").Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// ListVisibleSiteFiles lists a site's client-visible files, newest first.
// limit <= 0 means no limit.
func (s *FileService) ListVisibleSiteFiles(siteId int, limit int) ([]model.SharedFile, error) {
	db := database.GetDB()
	files := make([]model.SharedFile, 0)
	query := db.Model(model.SharedFile{}).
		Where("site_id = ? AND client_visible = ? AND is_deleted = ?", siteId, true, false).
		Order("id desc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&files).Error
	if err != nil {
		return nil, err
	}
	return files, nil
}

// SaveUpload validates and stores one uploaded file under a fresh uuid
// directory, then records the SharedFile row. siteId and requestId bind the
// file to its owner; at least one should be set.
func (s *FileService) SaveUpload(
	fh *multipart.FileHeader,
	uploadedBy *model.User,
	siteId *int,
	requestId *int,
	title string,
	description string,
	category string,
	clientVisible bool,
) (*model.SharedFile, error) {
	ext := filepath.Ext(fh.Filename)
	if !s.settingService.IsAllowedUploadExtension(ext) {
		return nil, ErrExtensionNotAllowed{Ext: ext}
	}

	maxBytes, err := s.settingService.GetMaxUploadBytes()
	if err != nil {
		return nil, err
	}
	if fh.Size > maxBytes {
		return nil, ErrFileTooLarge{MaxBytes: maxBytes}
	}

	fileUuid := uuid.New().String()
	baseName := filepath.Base(fh.Filename)
	relPath := filepath.Join(fileUuid, baseName)
	saveDir := filepath.Join(config.GetUploadFolderPath(), fileUuid)
	if err := os.MkdirAll(saveDir, 0o750); err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(saveDir, baseName))
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return nil, err
	}

	if title == "" {
		title = baseName
	}

	f := &model.SharedFile{
		SiteId:           siteId,
		RequestId:        requestId,
		UploadedById:     uploadedBy.Id,
		Title:            title,
		Description:      description,
		Category:         category,
		OriginalFilename: baseName,
		StoredPath:       relPath,
		SizeBytes:        fh.Size,
		ContentType:      fh.Header.Get("Content-Type"),
		ClientVisible:    clientVisible,
	}

	db := database.GetDB()
	if err := db.Create(f).Error; err != nil {
		return nil, err
	}
	logger.Infof("stored upload %q (%s) as file %d", baseName, common.FormatBytes(f.SizeBytes), f.Id)
	return f, nil
}

// StoredFilePath resolves the on-disk path of a shared file.
func (s *FileService) StoredFilePath(f *model.SharedFile) string {
	return filepath.Join(config.GetUploadFolderPath(), f.StoredPath)
}

// UpdateFileMeta edits the descriptive fields of a file.
func (s *FileService) UpdateFileMeta(id int, title, description, category string, clientVisible bool) error {
	db := database.GetDB()
	return db.Model(model.SharedFile{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"title":          title,
			"description":    description,
			"category":       category,
			"client_visible": clientVisible,
		}).
		Error
}

// SetDeleted soft-deletes or restores a file. The stored bytes stay on disk;
// outstanding download tokens fail at the policy check while deleted.
func (s *FileService) SetDeleted(id int, deleted bool) error {
	db := database.GetDB()
	return db.Model(model.SharedFile{}).
		Where("id = ?", id).
		Update("is_deleted", deleted).
		Error
}
