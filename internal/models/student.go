package models

type Student struct {
	StudentID string `gorm:"primaryKey;type:varchar(64)" json:"studentId"`
	Password  string `gorm:"not null" json:"-"`
}
