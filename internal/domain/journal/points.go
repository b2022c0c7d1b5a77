package journal

// Константы начисления баллов. Значения согласованы с кафедрой и
// меняются только вместе с регламентом.
const (
	// MaxPointsForStandards - потолок баллов за нормативы.
	MaxPointsForStandards = 30

	// VisitLifeDays - окно действительности посещения в днях: посещение
	// старше окна отметить уже нельзя.
	VisitLifeDays = 7

	// DefaultPointAmount - порог баллов для зачёта по умолчанию.
	// Рабочее значение берётся из конфигурации.
	DefaultPointAmount = 50
)

// CalculateTotalPoints вычисляет итоговые баллы студента:
// посещения по групповому тарифу плюс дополнительные баллы плюс баллы
// за нормативы (с потолком). Единственная формула итога во всей системе.
func CalculateTotalPoints(visits int, visitValue float64, additionalPoints, pointsForStandards int) float64 {
	if pointsForStandards > MaxPointsForStandards {
		pointsForStandards = MaxPointsForStandards
	}
	return float64(visits)*visitValue + float64(additionalPoints) + float64(pointsForStandards)
}
