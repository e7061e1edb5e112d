package model

import "time"

// OTPRecord is the single live code for an email address. Only the bcrypt
// hash of the code is ever stored.
type OTPRecord struct {
	Email      string    `json:"email"`
	CodeHash   string    `json:"code_hash"`
	Purpose    string    `json:"purpose"`
	LastSentAt time.Time `json:"last_sent_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *OTPRecord) Clone() *OTPRecord {
	if r == nil {
		return nil
	}
	cp := *r
	return &cp
}
