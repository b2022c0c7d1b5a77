package archive

// Decision - исход закрытия семестра для студента.
type Decision int

const (
	// GrantCredit - студент получает зачёт, семестр архивируется.
	GrantCredit Decision = iota

	// CarryDebt - баллов не хватило, долг переносится на следующий семестр.
	CarryDebt
)

// String возвращает строковое представление решения.
func (d Decision) String() string {
	if d == GrantCredit {
		return "grant_credit"
	}
	return "carry_debt"
}

// Decide - чистая функция политики архивации. Зачёт даётся при превышении
// порога (строго больше, граница исключается) либо при принудительном
// режиме: forceMode выставляется администратором вручную, например для
// освобождённых студентов, и всегда побеждает.
func Decide(totalPoints float64, threshold int, forceMode bool) Decision {
	if forceMode || totalPoints > float64(threshold) {
		return GrantCredit
	}
	return CarryDebt
}
