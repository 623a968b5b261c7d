package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Slip represents one parsed transaction receipt for data transfer between
// layers. FileLink is the original document path and the store-wide unique
// key; Date plus RefNum is the natural business key used by the consuming
// CRUD layer.
type Slip struct {
	MerchantName  string          `json:"merchant_name"`
	City          string          `json:"city"`
	Address       string          `json:"address"`
	PhoneNum      string          `json:"phone_num"`
	Date          time.Time       `json:"date"`
	Time          string          `json:"time"`
	OperationType string          `json:"operation_type"`
	PosID         string          `json:"pos_id"`
	MerchantNum   string          `json:"merchant_num"`
	FinService    string          `json:"fin_service"`
	Something     string          `json:"something"`
	CardNumber    string          `json:"card_number"`
	CardHolder    string          `json:"card_holder"`
	Summ          decimal.Decimal `json:"summ"`
	Result        string          `json:"result"`
	AuthCode      string          `json:"auth_code"`
	RefNum        *int64          `json:"ref_num,omitempty"`
	PaymentType   string          `json:"payment_type"`
	FileLink      string          `json:"file_link"`
	Updated       time.Time       `json:"updated"`
	ObjectCode    string          `json:"object_code"`
}

// FromFields builds a Slip from a parsed field map. The map's date, time
// and updated values are already normalized by the extractor; operation_num
// is parsed but never persisted, matching the store schema.
func FromFields(fields map[string]string) (*Slip, error) {
	date, err := time.Parse("2006-01-02", fields["date"])
	if err != nil {
		return nil, fmt.Errorf("date: %w", err)
	}
	updated, err := time.Parse("2006-01-02", fields["updated"])
	if err != nil {
		return nil, fmt.Errorf("updated: %w", err)
	}
	summ, err := decimal.NewFromString(strings.ReplaceAll(fields["summ"], ",", "."))
	if err != nil {
		return nil, fmt.Errorf("summ %q: %w", fields["summ"], err)
	}

	var refNum *int64
	if v := fields["ref_num"]; v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ref_num %q: %w", v, err)
		}
		refNum = &n
	}

	return &Slip{
		MerchantName:  fields["merchant_name"],
		City:          fields["city"],
		Address:       fields["address"],
		PhoneNum:      fields["phone_num"],
		Date:          date,
		Time:          fields["time"],
		OperationType: fields["operation_type"],
		PosID:         fields["pos_id"],
		MerchantNum:   fields["merchant_num"],
		FinService:    fields["fin_service"],
		Something:     fields["something"],
		CardNumber:    fields["card_number"],
		CardHolder:    fields["card_holder"],
		Summ:          summ,
		Result:        fields["result"],
		AuthCode:      fields["auth_code"],
		RefNum:        refNum,
		PaymentType:   fields["payment_type"],
		FileLink:      fields["file_link"],
		Updated:       updated,
		ObjectCode:    fields["object_code"],
	}, nil
}

// RefNumString renders the reference number in the zero-padded form the
// payment network uses, or empty when absent.
func (s *Slip) RefNumString() string {
	if s.RefNum == nil {
		return ""
	}
	return fmt.Sprintf("%012d", *s.RefNum)
}
