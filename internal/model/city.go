package model

// City is one entry of the static city-reference dataset. SiengeID is the
// identifier the ERP expects in creditor addresses.
type City struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(255);not null;index" json:"name"`
	State    string `gorm:"type:varchar(2);not null;index" json:"state"`
	SiengeID int    `gorm:"not null" json:"sienge_id"`
}
