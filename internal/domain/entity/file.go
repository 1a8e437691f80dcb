package entity

import (
	"strconv"
	"time"
)

const (
	defaultPhotoName = "photo.jpg"
	defaultPhotoMime = "image/jpeg"
)

// File фото, снятое в поле. До загрузки URL содержит data URL с base64,
// Uploaded выставляет сервер, когда принял файл.
type File struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	Uploaded     bool      `json:"uploaded"`
	CompanyID    string    `json:"companyId"`
	UserID       string    `json:"userId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (f *File) EntityKind() Kind      { return KindFile }
func (f *File) EntityID() string      { return f.ID }
func (f *File) SetEntityID(id string) { f.ID = id }
func (f *File) Scope() Scope          { return Scope{CompanyID: f.CompanyID} }

func (f *File) Validate() error {
	if f.URL == "" {
		return ErrEmptyFile
	}
	return nil
}

// FillDefaults задает имя, тип и время съемки, если клиент их не передал
func (f *File) FillDefaults(now time.Time) {
	if f.Filename == "" {
		f.Filename = "photo_" + strconv.FormatInt(now.UnixMilli(), 10) + ".jpg"
	}
	if f.OriginalName == "" {
		f.OriginalName = defaultPhotoName
	}
	if f.MimeType == "" {
		f.MimeType = defaultPhotoMime
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
	}
}
