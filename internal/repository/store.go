// Package repository persists Slip records. The ingestion pipeline only
// ever inserts; the consuming CRUD layer owns updates and deletes, so the
// surface here is deliberately small.
package repository

import (
	"context"
	"time"

	"github.com/pikta/slip-ingest/internal/entity"
)

// SlipStore is the store surface the ingestion pipeline consumes.
type SlipStore interface {
	// Exists reports whether a slip with this file_link is already stored.
	Exists(ctx context.Context, fileLink string) (bool, error)
	// BulkInsert commits a batch in one transaction and returns the number
	// of rows actually inserted. Rows whose file_link already exists are
	// ignored, so re-submitting a batch after a failed commit is safe.
	BulkInsert(ctx context.Context, slips []*entity.Slip) (int64, error)
	// MaxDate returns the newest slip date, or ok=false on an empty store.
	MaxDate(ctx context.Context) (time.Time, bool, error)
	// Count returns the total number of stored slips.
	Count(ctx context.Context) (int64, error)
}

const slipColumns = `merchant_name, city, address, phone_num, date, time,
	operation_type, pos_id, merchant_num, fin_service, something,
	card_number, card_holder, summ, result, auth_code, ref_num,
	payment_type, file_link, updated, object_code`

func slipArgs(s *entity.Slip) []any {
	return []any{
		s.MerchantName, s.City, s.Address, s.PhoneNum, s.Date, s.Time,
		s.OperationType, s.PosID, s.MerchantNum, s.FinService, s.Something,
		s.CardNumber, s.CardHolder, s.Summ, s.Result, s.AuthCode, s.RefNum,
		s.PaymentType, s.FileLink, s.Updated, s.ObjectCode,
	}
}
