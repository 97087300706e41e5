package schema

import "time"

// ApplicationRecord is the GORM row for a logical product slug. Lookup
// is case-insensitive (internal/store/queries.go's GetApplication uses
// LOWER(id) = LOWER(?)) but the id is stored with its original case.
type ApplicationRecord struct {
	ID             string `gorm:"primaryKey;type:text"`
	DisplayName    string
	PrivateKeyPEM  []byte `gorm:"type:bytea"`
	PublicKeyPEM   []byte `gorm:"type:bytea"`
	Uploads        []UploadRecord `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	Devices        []DeviceRecord `gorm:"foreignKey:ApplicationID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time
	UpdatedAt      time.Time `gorm:"ORDERBY"`
}
