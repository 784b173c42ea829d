package model

import (
	"time"

	"gorm.io/gorm"
)

// MaxMessageLength is the longest message text accepted by the schema.
const MaxMessageLength = 140

// Message is a short post owned by exactly one user.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Text      string    `json:"text" gorm:"size:140;not null;check:text <> ''"`
	Timestamp time.Time `json:"timestamp" gorm:"not null;index"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`

	// Relations
	User    *User   `json:"-" gorm:"foreignKey:UserID"`
	LikedBy []*User `json:"-" gorm:"many2many:likes;joinForeignKey:MessageID;joinReferences:UserID"`
}

// BeforeCreate stamps the message if the caller did not.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return nil
}

// Like records that UserID liked MessageID. It is the join model of Message.LikedBy.
type Like struct {
	UserID    uint `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	MessageID uint `json:"message_id" gorm:"primaryKey;autoIncrement:false;index"`

	User    *User    `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Message *Message `json:"-" gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE"`
}

// TableName binds Like to the likes join table.
func (Like) TableName() string {
	return "likes"
}
