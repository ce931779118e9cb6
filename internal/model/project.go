package model

import "time"

// Project is the repository a set of files belongs to. Only the id and the
// display name are used by this service.
type Project struct {
	ID          int64  `json:"id"          db:"id"`
	ProjectName string `json:"projectname" db:"projectname"`
}

// ProjectFile is the metadata row of an uploaded file.
//
// FileName is the server-generated name the bytes are stored under;
// OriginalName is what the uploader called it and what downloads are named.
type ProjectFile struct {
	ID           int64     `json:"id"           db:"id"`
	ProjectID    int64     `json:"projectId"    db:"project_id"`
	UserID       int64     `json:"userId"       db:"user_id"`
	FileName     string    `json:"fileName"     db:"file_name"`
	OriginalName string    `json:"originalName" db:"original_name"`
	UploadedAt   time.Time `json:"uploadedAt"   db:"uploaded_at"`

	// Username of the uploader, filled by listing queries that join users.
	Username string `json:"-" db:"username"`
}
