package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// nextDocumentNumber produces the next sequential document number in
// the form PREFIX-YYYY-NNNN (e.g. S-2026-0042). The sequence restarts
// every year. Callers run inside the posting transaction, so the unique
// index on the number column resolves races.
func nextDocumentNumber(ctx context.Context, db *gorm.DB, table, column, prefix string) (string, error) {
	year := time.Now().Year()
	yearPrefix := fmt.Sprintf("%s-%d-", prefix, year)

	var last string
	err := db.WithContext(ctx).
		Table(table).
		Select(column).
		Where(column+" LIKE ?", yearPrefix+"%").
		Order(column + " DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	var nextNum int64 = 1
	if last != "" {
		parts := strings.Split(last, "-")
		if len(parts) == 3 {
			var num int64
			if _, parseErr := fmt.Sscanf(parts[2], "%d", &num); parseErr == nil {
				nextNum = num + 1
			}
		}
	}

	return fmt.Sprintf("%s%04d", yearPrefix, nextNum), nil
}
