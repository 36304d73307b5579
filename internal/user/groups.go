package user

// Groups is the fixed list of study groups in display order.
var Groups = []string{
	"ИСиП25-1", "ИСиП25к", "МК23", "МНЭ25",
	"ОИБ25-1", "ОИБ25-2", "ОИБ25к", "ТЭС25", "ТЭС24",
	"УК25-1", "УК25-2", "УК25к",
	"ЭМ23", "ЭМ25", "ЭС25-1", "ЭС25-2", "ЭС24",
}

func IsValidGroup(group string) bool {
	for _, g := range Groups {
		if g == group {
			return true
		}
	}
	return false
}
