package services

import (
	"math"

	"github.com/jpmahinay/smashers/models"
)

// KFactor ограничивает максимальный сдвиг рейтинга за один матч.
const KFactor = 32

// teamRating - рейтинг команды как среднее арифметическое двух игроков.
// Считается строго по рейтингам до обновления.
func teamRating(players [2]int) float64 {
	return (float64(players[0]) + float64(players[1])) / 2
}

// expectedScore - ожидаемый результат команды A против команды B.
func expectedScore(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// updatedRatings возвращает пост-матчевые рейтинги обеих команд.
// Оба игрока команды получают одну и ту же дельту K*(actual-expected),
// прибавленную к их личному рейтингу и округлённую до целого.
func updatedRatings(teamA, teamB [2]int, winner models.TeamKey) (newA, newB [2]int) {
	ratingA := teamRating(teamA)
	ratingB := teamRating(teamB)

	expectedA := expectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	actualA, actualB := 0.0, 1.0
	if winner == models.TeamA {
		actualA, actualB = 1.0, 0.0
	}

	deltaA := KFactor * (actualA - expectedA)
	deltaB := KFactor * (actualB - expectedB)

	for i := 0; i < 2; i++ {
		newA[i] = int(math.Round(float64(teamA[i]) + deltaA))
		newB[i] = int(math.Round(float64(teamB[i]) + deltaB))
	}
	return newA, newB
}

// coupleRating - рейтинг пары как округлённое среднее рейтингов её
// игроков. Единственный источник правды - личный рейтинг, отдельной
// ELO-дуэли между парами нет.
func coupleRating(rating1, rating2 int) int {
	return int(math.Round((float64(rating1) + float64(rating2)) / 2))
}
