package event

import "time"

// Metadata carries contextual information alongside an event.
type Metadata struct {
	TenantID      string    `json:"tenant_id,omitempty"      bson:"tenant_id,omitempty"`
	UserID        string    `json:"user_id,omitempty"        bson:"user_id,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	CausationID   string    `json:"causation_id,omitempty"   bson:"causation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp,omitempty"      bson:"timestamp,omitempty"`
	IPAddress     string    `json:"ip_address,omitempty"     bson:"ip_address,omitempty"`
}

// NewMetadata creates metadata stamped with the current time.
func NewMetadata(userID, correlationID, causationID string) Metadata {
	return Metadata{
		UserID:        userID,
		CorrelationID: correlationID,
		CausationID:   causationID,
		Timestamp:     time.Now(),
	}
}

// WithTenant attaches the tenant ID.
func (m Metadata) WithTenant(tenantID string) Metadata {
	m.TenantID = tenantID
	return m
}

// WithIPAddress attaches the originating IP address.
func (m Metadata) WithIPAddress(ip string) Metadata {
	m.IPAddress = ip
	return m
}
