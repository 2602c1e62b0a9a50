package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Money — денежная сумма в минимальных единицах (копейки/центы).
// Хранение в int64 исключает ошибки двоичной плавающей точки при расчётах.
// Во внешних форматах (JSON, логи) сумма представляется строкой вида "3150.79".
type Money int64

// TaxRateBasisPoints — ставка налога по умолчанию в базисных пунктах (5%).
const TaxRateBasisPoints = 500

// ParseMoney парсит десятичную строку ("1000.25") в Money.
// Допускается не более двух знаков после точки.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("пустая денежная сумма")
	}

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	intPart := s
	fracPart := ""
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		intPart = s[:idx]
		fracPart = s[idx+1:]
	}

	if len(fracPart) > 2 {
		return 0, fmt.Errorf("некорректная денежная сумма %q: больше двух знаков после точки", s)
	}
	// Дополняем дробную часть до двух знаков: "5" -> "50".
	for len(fracPart) < 2 {
		fracPart += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректная денежная сумма %q", s)
	}

	cents, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректная денежная сумма %q", s)
	}

	total := units*100 + cents
	if neg {
		total = -total
	}
	return Money(total), nil
}

// TaxAt возвращает налог от суммы по ставке в базисных пунктах.
// Округление до цента — half away from zero.
func (m Money) TaxAt(basisPoints int64) Money {
	raw := int64(m) * basisPoints
	if raw >= 0 {
		return Money((raw + 5000) / 10000)
	}
	return Money((raw - 5000) / 10000)
}

// Add возвращает сумму двух денежных значений.
func (m Money) Add(other Money) Money {
	return m + other
}

// String форматирует сумму как десятичную строку с двумя знаками.
func (m Money) String() string {
	v := int64(m)
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON сериализует сумму как строку "3150.79".
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// Value сериализует сумму для DECIMAL(12,2) колонки.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan читает сумму из DECIMAL колонки: драйвер отдаёт []byte или string.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		parsed, err := ParseMoney(string(v))
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case string:
		parsed, err := ParseMoney(v)
		if err != nil {
			return err
		}
		*m = parsed
		return nil
	case int64:
		// Целое значение из БД трактуем как целые денежные единицы.
		*m = Money(v * 100)
		return nil
	case float64:
		return fmt.Errorf("DECIMAL колонка прочитана как float64: проверьте настройки драйвера")
	default:
		return fmt.Errorf("неподдерживаемый тип для Money: %T", src)
	}
}

// UnmarshalJSON принимает как строку ("3150.79"), так и число (3150.79).
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Не строка — пробуем как JSON число в исходном текстовом виде.
		s = string(data)
	}

	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
