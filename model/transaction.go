package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionStatus is the local payment state. Only the payment webhook moves
// it from pending to success or failed.
type TransactionStatus string

const (
	TransactionPending TransactionStatus = "pending"
	TransactionSuccess TransactionStatus = "success"
	TransactionFailed  TransactionStatus = "failed"
)

// SignUpPrice is the amount charged for a manager sign-up, in minor units
const SignUpPrice int64 = 280000

// Transaction is a payment record whose ID doubles as the gateway order id
type Transaction struct {
	ID            string            `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	UserID        uint              `gorm:"not null;index" json:"user_id"`
	Price         int64             `gorm:"not null" json:"price"`
	Status        TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	GatewayStatus string            `gorm:"type:varchar(30)" json:"gateway_status,omitempty"` // raw Midtrans transaction_status
	PaymentType   string            `gorm:"type:varchar(50)" json:"payment_type,omitempty"`
	Notification  datatypes.JSON    `gorm:"type:jsonb" json:"-"` // last webhook payload

	// Relationships
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}

// BeforeCreate fills the opaque id and the explicit pending state
func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = TransactionPending
	}
	return nil
}
