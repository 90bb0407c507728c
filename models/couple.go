package models

import "time"

// Couple - постоянная пара для парных матчей. Рейтинг пары всегда
// пересчитывается из текущих рейтингов её игроков, у пары нет
// собственной ELO-дуэли.
type Couple struct {
	ID           int       `json:"id"`
	Player1ID    int       `json:"player1_id"`
	Player2ID    int       `json:"player2_id"`
	Rating       int       `json:"rating"`
	TotalMatches int       `json:"total_matches"`
	TotalWins    int       `json:"total_wins"`
	CreatedAt    time.Time `json:"created_at"`

	Player1 *User `json:"player1,omitempty"`
	Player2 *User `json:"player2,omitempty"`
}

// HasPair сравнивает пару как неупорядоченное множество двух id.
func (c *Couple) HasPair(a, b int) bool {
	return (c.Player1ID == a && c.Player2ID == b) || (c.Player1ID == b && c.Player2ID == a)
}

// Contains проверяет, состоит ли игрок в паре.
func (c *Couple) Contains(userID int) bool {
	return c.Player1ID == userID || c.Player2ID == userID
}
