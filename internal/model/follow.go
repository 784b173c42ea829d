package model

// Follow is a directed edge in the follows join table: FollowerID follows FollowedID.
// It is registered as the join model of User.Following and User.Followers.
type Follow struct {
	FollowerID uint `json:"follower_id" gorm:"primaryKey;autoIncrement:false"`
	FollowedID uint `json:"followed_id" gorm:"primaryKey;autoIncrement:false;index"`

	Follower *User `json:"-" gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE"`
	Followed *User `json:"-" gorm:"foreignKey:FollowedID;constraint:OnDelete:CASCADE"`
}

// TableName binds Follow to the join table shared with User.Following and User.Followers.
func (Follow) TableName() string {
	return "follows"
}
