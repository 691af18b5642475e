package models

import (
	"time"
)

type Project struct {
	Name      string    `json:"name" gorm:"primaryKey;type:text"`
	RemoteURL string    `json:"remoteUrl" gorm:"type:text"`
	Path      string    `json:"path" gorm:"type:text"`
	CDate     time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Commit struct {
	Hash           string    `json:"hash" gorm:"primaryKey;type:text"`
	Project        string    `json:"project" gorm:"type:text;not null;index"`
	ChangeID       string    `json:"changeId" gorm:"type:text;index"`
	Author         string    `json:"author" gorm:"type:text;index"`
	CommitDate     string    `json:"date" gorm:"type:text;index"`
	Subject        string    `json:"subject" gorm:"type:text"`
	Body           string    `json:"body" gorm:"type:text"`
	Classification *string   `json:"classification" gorm:"type:text;index"`
	ReviewURL      string    `json:"reviewUrl" gorm:"type:text"`
	CDate          time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Label struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string `json:"name" gorm:"type:text;uniqueIndex"`
	IsDefault bool   `json:"isDefault" gorm:"type:boolean;not null;default:false"`
}

type CommitLabel struct {
	CommitHash string `json:"commitHash" gorm:"primaryKey;type:text;index"`
	LabelID    int64  `json:"labelId" gorm:"primaryKey"`
	Label      Label  `json:"-" gorm:"foreignKey:LabelID;references:ID;constraint:OnDelete:CASCADE;"`
}
