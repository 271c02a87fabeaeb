package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// GenerateReservationCode builds a human-facing code. Format: RSV-YYYYMMDD-HHMMSS-XXXXXXXX
func GenerateReservationCode(now time.Time) string {
	datePart := now.Format("20060102")
	timePart := now.Format("150405")
	randomPart := strings.ToUpper(uuid.NewString()[:8])

	return fmt.Sprintf("RSV-%s-%s-%s", datePart, timePart, randomPart)
}

// RoundMoney rounds to cents.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}
