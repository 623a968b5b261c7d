package parse

// ErrorKind is a terminal, non-retryable classification of a receipt file.
// The string values are written verbatim to the error ledger and must stay
// stable: prior runs' ledgers are loaded back as the skip-set.
type ErrorKind string

const (
	ConversionError   ErrorKind = "Conversion error"
	EmptyOrCorrupt    ErrorKind = "Empty file or conversion error"
	MonitoringMessage ErrorKind = "Skip"
	CardUnreadable    ErrorKind = "Card error"
	CardOutOfService  ErrorKind = "Card out of service"
	PasswordOnPhone   ErrorKind = "Password on phone"
	ChipRequired      ErrorKind = "Use chip"
	CancelledByClient ErrorKind = "Cancelled by client"
	PatternMismatch   ErrorKind = "Regexp error"
)

// keyPhrases maps terminal-condition phrases printed on slips to their
// classification. Checked in order; phrases are mutually exclusive in
// practice, so order only matters for determinism.
var keyPhrases = []struct {
	phrase string
	kind   ErrorKind
}{
	{"I/O Error", ConversionError},
	{"Сообщение системы мониторинга:", MonitoringMessage},
	{"Карта не читается", CardUnreadable},
	{"карта не обслуживается", CardOutOfService},
	{"Введите пароль на телефоне", PasswordOnPhone},
	{"чип", ChipRequired},
	{"отменена клиентом", CancelledByClient},
}
