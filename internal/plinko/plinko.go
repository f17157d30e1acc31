// Package plinko держит таблицы множителей и серверную симуляцию падения
// шарика. Таблицы симметричны; края платят больше, центр — меньше единицы.
package plinko

import (
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/plinko-game/backend/internal/errs"
	"github.com/plinko-game/backend/internal/models"
)

// Поддерживаются только те комбинации risk x rows, для которых заведена
// таблица. Длина таблицы всегда rows+1.
var multiplierTables = map[models.RiskLevel]map[int][]decimal.Decimal{
	models.RiskLow: {
		8:  row("5.6", "2.1", "1.1", "1", "0.5", "1", "1.1", "2.1", "5.6"),
		12: row("10", "3", "1.6", "1.4", "1.1", "1", "0.5", "1", "1.1", "1.4", "1.6", "3", "10"),
		16: row("16", "9", "2", "1.4", "1.4", "1.2", "1.1", "1", "0.5", "1", "1.1", "1.2", "1.4", "1.4", "2", "9", "16"),
	},
	models.RiskMedium: {
		8:  row("13", "3", "1.3", "0.7", "0.4", "0.7", "1.3", "3", "13"),
		12: row("24", "5", "1.8", "1.3", "0.9", "0.7", "0.4", "0.7", "0.9", "1.3", "1.8", "5", "24"),
		16: row("33", "11", "4", "2", "1.1", "0.6", "0.3", "0.2", "0.2", "0.2", "0.3", "0.6", "1.1", "2", "4", "11", "33"),
	},
	models.RiskHigh: {
		8:  row("29", "4", "1.5", "0.3", "0.2", "0.3", "1.5", "4", "29"),
		12: row("58", "9", "2", "1.2", "0.6", "0.4", "0.2", "0.4", "0.6", "1.2", "2", "9", "58"),
		16: row("110", "41", "10", "5", "1.9", "0.3", "0.2", "0.1", "0.1", "0.1", "0.2", "0.3", "1.9", "5", "10", "41", "110"),
	},
}

func row(vals ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.RequireFromString(v)
	}
	return out
}

// Table возвращает таблицу множителей для пары risk/rows.
func Table(risk models.RiskLevel, rows int) ([]decimal.Decimal, error) {
	table, ok := multiplierTables[risk][rows]
	if !ok {
		return nil, errs.Validationf("unsupported risk/rows combination: %s/%d", risk, rows)
	}
	return table, nil
}

// MultiplierFor отображает конечную позицию шарика в множитель.
// Позиция за правым краем прижимается к последнему слоту.
func MultiplierFor(risk models.RiskLevel, rows, finalPosition int) (decimal.Decimal, error) {
	table, err := Table(risk, rows)
	if err != nil {
		return decimal.Zero, err
	}
	if finalPosition < 0 {
		finalPosition = 0
	}
	if finalPosition > len(table)-1 {
		finalPosition = len(table) - 1
	}
	return table[finalPosition], nil
}

type Result struct {
	Multiplier decimal.Decimal
	BallPath   []int
}

// Simulate проигрывает падение шарика на сервере. Используется воркером
// досчёта незавершённых ставок, когда клиентская анимация так и не
// прислала результат.
func Simulate(risk models.RiskLevel, rows int) (Result, error) {
	table, err := Table(risk, rows)
	if err != nil {
		return Result{}, err
	}
	path := make([]int, 0, rows)
	position := 0
	for r := 0; r < rows; r++ {
		direction := -1
		if rand.Intn(2) == 1 {
			direction = 1
		}
		position += direction
		if position < 0 {
			position = 0
		}
		if position > r+1 {
			position = r + 1
		}
		path = append(path, position)
	}
	final := path[len(path)-1]
	if final > len(table)-1 {
		final = len(table) - 1
	}
	return Result{Multiplier: table[final], BallPath: path}, nil
}
