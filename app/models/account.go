package models

import "time"

func (a *Account) Validate() error {
	return validate.Struct(a)
}

func (a *Account) BeforeCreate() {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
}
