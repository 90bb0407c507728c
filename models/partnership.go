package models

import "time"

// PartnershipRequest - заявка на создание пары. Живёт только в статусе
// pending: принятие превращает её в Couple и удаляет заявку, отказ или
// отзыв просто удаляет.
type PartnershipRequest struct {
	ID            int       `json:"id"`
	RequesterID   int       `json:"requester_id"`
	RequesterName string    `json:"requester_name"`
	PartnerID     int       `json:"partner_id"`
	CreatedAt     time.Time `json:"created_at"`

	Partner *User `json:"partner,omitempty"`
}
