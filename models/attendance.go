package models

import "time"

// AttendanceRecord - одна запись на календарный день со списком
// присутствующих. Сохранение за тот же день полностью заменяет список.
type AttendanceRecord struct {
	Day            time.Time `json:"date"`
	PresentUserIDs []int     `json:"present_user_ids"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsPresent проверяет, отмечен ли игрок в этот день.
func (a *AttendanceRecord) IsPresent(userID int) bool {
	for _, id := range a.PresentUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
