package models

import "time"

type MatchStatus string

const (
	MatchStatusOngoing   MatchStatus = "ongoing"
	MatchStatusCompleted MatchStatus = "completed"
)

type TeamKey string

const (
	TeamA TeamKey = "A"
	TeamB TeamKey = "B"
)

type Match struct {
	ID           int         `json:"id"`
	TeamAPlayer1 int         `json:"team_a_player1"`
	TeamAPlayer2 int         `json:"team_a_player2"`
	TeamBPlayer1 int         `json:"team_b_player1"`
	TeamBPlayer2 int         `json:"team_b_player2"`
	ScoreTeamA   int         `json:"score_team_a"`
	ScoreTeamB   int         `json:"score_team_b"`
	Status       MatchStatus `json:"status"`
	WinnerTeam   *TeamKey    `json:"winner_team,omitempty"`
	PlayedOn     time.Time   `json:"played_on"`
	CreatedAt    time.Time   `json:"created_at"`

	// Имена участников, подгружаются при выдаче наружу.
	TeamANames []string `json:"team_a_names,omitempty"`
	TeamBNames []string `json:"team_b_names,omitempty"`
}

// TeamAIDs возвращает команду A как пару id.
func (m *Match) TeamAIDs() [2]int {
	return [2]int{m.TeamAPlayer1, m.TeamAPlayer2}
}

// TeamBIDs возвращает команду B как пару id.
func (m *Match) TeamBIDs() [2]int {
	return [2]int{m.TeamBPlayer1, m.TeamBPlayer2}
}

// ParticipantIDs - все четыре слота матча.
func (m *Match) ParticipantIDs() [4]int {
	return [4]int{m.TeamAPlayer1, m.TeamAPlayer2, m.TeamBPlayer1, m.TeamBPlayer2}
}

// HasParticipant проверяет, занимает ли игрок один из слотов.
func (m *Match) HasParticipant(userID int) bool {
	for _, id := range m.ParticipantIDs() {
		if id == userID {
			return true
		}
	}
	return false
}
