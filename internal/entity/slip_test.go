package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleFields() map[string]string {
	return map[string]string{
		"merchant_name":  "SUPERMARKET PIKTA",
		"city":           "Moscow",
		"address":        "Lenina st. 1",
		"phone_num":      "(495)123-45-67",
		"date":           "2019-01-14",
		"time":           "15:13",
		"operation_type": "Оплата покупки",
		"pos_id":         "24011234",
		"merchant_num":   "12345678",
		"fin_service":    "VISA",
		"something":      "A0000000031010",
		"card_number":    "1234",
		"card_holder":    "IVANOV IVAN/",
		"summ":           "1500.00",
		"result":         "ОДОБРЕНО",
		"auth_code":      "A12345",
		"ref_num":        "900123456789",
		"payment_type":   "VISA",
		"file_link":      `\\share\SLIP\A100\2019\01\a.pdf`,
		"updated":        "2019-02-01",
		"object_code":    "A100",
	}
}

func TestFromFields(t *testing.T) {
	s, err := FromFields(sampleFields())
	require.NoError(t, err)

	assert.Equal(t, "SUPERMARKET PIKTA", s.MerchantName)
	assert.Equal(t, "2019-01-14", s.Date.Format("2006-01-02"))
	assert.Equal(t, "15:13", s.Time)
	assert.Equal(t, "24011234", s.PosID)
	assert.True(t, s.Summ.Equal(decimal.RequireFromString("1500.00")))
	require.NotNil(t, s.RefNum)
	assert.EqualValues(t, 900123456789, *s.RefNum)
	assert.Equal(t, "A100", s.ObjectCode)
	assert.Equal(t, "2019-02-01", s.Updated.Format("2006-01-02"))
}

func TestFromFieldsCommaDecimal(t *testing.T) {
	f := sampleFields()
	f["summ"] = "1500,50"
	s, err := FromFields(f)
	require.NoError(t, err)
	assert.True(t, s.Summ.Equal(decimal.RequireFromString("1500.5")))
}

func TestFromFieldsMissingRefNum(t *testing.T) {
	f := sampleFields()
	f["ref_num"] = ""
	f["payment_type"] = ""
	s, err := FromFields(f)
	require.NoError(t, err)
	assert.Nil(t, s.RefNum)
	assert.Empty(t, s.RefNumString())
}

func TestFromFieldsBadValues(t *testing.T) {
	for name, mut := range map[string]func(map[string]string){
		"bad date":    func(f map[string]string) { f["date"] = "14.01.19" },
		"bad updated": func(f map[string]string) { f["updated"] = "" },
		"bad summ":    func(f map[string]string) { f["summ"] = "сто" },
		"bad ref_num": func(f map[string]string) { f["ref_num"] = "90A123" },
	} {
		t.Run(name, func(t *testing.T) {
			f := sampleFields()
			mut(f)
			_, err := FromFields(f)
			assert.Error(t, err)
		})
	}
}

func TestRefNumString(t *testing.T) {
	n := int64(123456)
	s := &Slip{RefNum: &n}
	assert.Equal(t, "000000123456", s.RefNumString())
}
