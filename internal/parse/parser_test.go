package parse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// slipText builds a synthetic slip in the primary layout: operation number
// on the cheque line, card block with masked number first, reference block
// present.
const slipText = `SUPERMARKET PIKTA
Moscow,Lenina st. 1
т. (495)123-45-67

14.01.19 15:13
ЧЕК 39
Оплата покупки
Терминал: 24011234 Мерчант:
12345678
VISA A0000000031010
Карта:
************1234
Клиент:
IVANOV IVAN/
Сумма (Руб):
1500.00
ОДОБРЕНО
Код авторизации:
A12345
Номер ссылки:
900123456789
VISA
`

// slipTextAlt uses the fallback layouts: operation number after the
// "Номер операции:" label, client line before the card number, and no
// reference block.
const slipTextAlt = `SUPERMARKET PIKTA
Moscow,Lenina st. 1
т. (495)123-45-67

14.01.19 15:13
ЧЕК
Оплата покупки
Терминал: 24011234 Мерчант:
12345678
VISA A0000000031010
Карта:***
Клиент:

************1234
IVANOV IVAN/
Сумма (Руб):
1500.00
ОДОБРЕНО
Код авторизации:
A12345
Номер операции:
39
`

func TestMatchFieldsPrimaryLayout(t *testing.T) {
	fields := matchFields(slipText)
	require.NotNil(t, fields)

	assert.Equal(t, "SUPERMARKET PIKTA", fields["merchant_name"])
	assert.Equal(t, "Moscow", fields["city"])
	assert.Equal(t, "14.01.19", fields["date"])
	assert.Equal(t, "15:13", fields["time"])
	assert.Equal(t, "39", fields["operation_num"])
	assert.Equal(t, "Оплата покупки", fields["operation_type"])
	assert.Equal(t, "24011234", fields["pos_id"])
	assert.Equal(t, "12345678", fields["merchant_num"])
	assert.Equal(t, "VISA", fields["fin_service"])
	assert.Equal(t, "A0000000031010", fields["something"])
	assert.Equal(t, "1234", fields["card_number"])
	assert.Equal(t, "IVANOV IVAN/", fields["card_holder"])
	assert.Equal(t, "1500.00", fields["summ"])
	assert.Equal(t, "ОДОБРЕНО", fields["result"])
	assert.Equal(t, "A12345", fields["auth_code"])
	assert.Equal(t, "900123456789", fields["ref_num"])
	assert.Equal(t, "VISA", fields["payment_type"])
}

func TestMatchFieldsFallbackLayout(t *testing.T) {
	fields := matchFields(slipTextAlt)
	require.NotNil(t, fields)

	assert.Equal(t, "39", fields["operation_num"])
	assert.Equal(t, "Оплата покупки", fields["operation_type"])
	assert.Equal(t, "1234", fields["card_number"])
	assert.Equal(t, "IVANOV IVAN/", fields["card_holder"])
	// reference block absent: fields present but empty
	assert.Equal(t, "", fields["ref_num"])
	assert.Equal(t, "", fields["payment_type"])
}

func TestMatchFieldsRejectsIncompleteText(t *testing.T) {
	assert.Nil(t, matchFields("ЧЕК 39\nОплата покупки\nТерминал: 123 \n"))
	assert.Nil(t, matchFields("just some unrelated text that is long enough"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ErrorKind
	}{
		{"empty text", "", EmptyOrCorrupt},
		{"near-empty text", "short", EmptyOrCorrupt},
		{"converter io error", "I/O Error: could not read page", ConversionError},
		{"monitoring message", "Сообщение системы мониторинга: все плохо", MonitoringMessage},
		{"card unreadable", "длинный текст Карта не читается конец", CardUnreadable},
		{"card out of service", "длинный текст карта не обслуживается конец", CardOutOfService},
		{"password on phone", "Введите пароль на телефоне пожалуйста", PasswordOnPhone},
		{"chip required", "вставьте карту чипом вверх", ChipRequired},
		{"cancelled by client", "операция отменена клиентом сегодня", CancelledByClient},
		{"clean slip text", slipText, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.text))
		})
	}
}

// fakeConverter returns canned text or an error.
type fakeConverter struct {
	text string
	err  error
}

func (f fakeConverter) Convert(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

// testPath mimics the production share layout so the default offsets line
// up: the year's last two digits sit at offset 26, the facility code at 32.
const testPath = `\\Msk-vm-slip\SLIP\A100\2019\01\A10091E001820190114151311.pdf`

func TestExtractSuccess(t *testing.T) {
	e := NewExtractor(Config{}, fakeConverter{text: slipText}, nil)
	res := e.Extract(context.Background(), testPath)

	require.False(t, res.Failed(), "unexpected error %q", res.Err)
	assert.Equal(t, testPath, res.Fields["file_link"])
	// day and month from the document, year from the path
	assert.Equal(t, "2019-01-14", res.Fields["date"])
	assert.Equal(t, "15:13", res.Fields["time"])
	assert.Equal(t, "A100", res.Fields["object_code"])
	assert.NotEmpty(t, res.Fields["updated"])
}

func TestExtractPathYearOverridesDocumentYear(t *testing.T) {
	// same document text, different year directory in the path
	path := `\\Msk-vm-slip\SLIP\A100\2020\01\A10091E001820200114151311.pdf`
	e := NewExtractor(Config{}, fakeConverter{text: slipText}, nil)
	res := e.Extract(context.Background(), path)

	require.False(t, res.Failed())
	assert.Equal(t, "2020-01-14", res.Fields["date"])
}

func TestExtractConversionFailure(t *testing.T) {
	e := NewExtractor(Config{}, fakeConverter{err: errors.New("exec: not found")}, nil)
	res := e.Extract(context.Background(), testPath)

	assert.True(t, res.Failed())
	assert.Equal(t, ConversionError, res.Err)
	assert.Equal(t, testPath, res.Path)
}

func TestExtractClassifiedFailure(t *testing.T) {
	e := NewExtractor(Config{}, fakeConverter{text: "предупреждение Карта не читается сегодня"}, nil)
	res := e.Extract(context.Background(), testPath)

	assert.Equal(t, CardUnreadable, res.Err)
}

func TestExtractPatternFailure(t *testing.T) {
	e := NewExtractor(Config{}, fakeConverter{text: "длинный текст без нужных полей вообще"}, nil)
	res := e.Extract(context.Background(), testPath)

	assert.Equal(t, PatternMismatch, res.Err)
}

func TestExtractShortPathFails(t *testing.T) {
	// too short for the year offset convention
	e := NewExtractor(Config{}, fakeConverter{text: slipText}, nil)
	res := e.Extract(context.Background(), "short.pdf")

	assert.Equal(t, PatternMismatch, res.Err)
}

func TestExtractCustomOffsets(t *testing.T) {
	path := "/srv/slips/A100/2021/02/doc.pdf"
	e := NewExtractor(Config{
		YearOffset:       18, // "21" inside /2021/
		ObjectCodeOffset: 11, // "A100"
	}, fakeConverter{text: slipText}, nil)
	res := e.Extract(context.Background(), path)

	require.False(t, res.Failed(), "unexpected error %q", res.Err)
	assert.Equal(t, "2021-01-14", res.Fields["date"])
	assert.Equal(t, "A100", res.Fields["object_code"])
}

func TestNormalizeTime(t *testing.T) {
	for _, tt := range []struct {
		in, want string
		ok       bool
	}{
		{"15:13", "15:13", true},
		{"9.05", "09:05", true},
		{"15-13", "15:13", true},
		{"25:00", "", false},
		{"nope", "", false},
	} {
		got, err := normalizeTime(tt.in)
		if tt.ok {
			require.NoError(t, err, tt.in)
			assert.Equal(t, tt.want, got)
		} else {
			assert.Error(t, err, tt.in)
		}
	}
}
