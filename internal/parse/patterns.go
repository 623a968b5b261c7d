package parse

import "regexp"

// Field patterns for the slip text produced by pdftotext. These mirror the
// observed receipt layout and must not be "improved": the documents vary in
// whitespace, date/time separators and block order, and every alternation
// below exists because a real terminal printed it that way.
var (
	// headPattern captures the merchant header: name, city, address,
	// optional phone, then date and time on the first lines.
	headPattern = regexp.MustCompile(`(?i)^\n*(?P<merchant_name>.*)\n+` +
		`(?P<city>.*?)(?:,|\n)` +
		`(?P<address>(?s:.+?))` +
		`\n?(?:т. )?(?P<phone_num>[\d(][-\d)( ]{6,})?\n+` +
		`(?P<date>\d{1,2}[-.,\\/ ]\d{2}[-.,\\/ ]\d{2,4})\s*` +
		`(?P<time>\d{1,2}[-:.,\\/ ]\d{2})`)

	// opPattern matches the cheque block where the operation number
	// precedes the type label; opPatternAlt is the fallback layout with
	// the number printed further down after "Номер операции:".
	opPattern    = regexp.MustCompile(`(?i)ЧЕК\s(?P<operation_num>\d+)\n(?P<operation_type>.*)`)
	opPatternAlt = regexp.MustCompile(`(?i)ЧЕК\n(?P<operation_type>.*)(?s:.*)Номер операции:\n(?P<operation_num>\d+)`)

	posIDPattern = regexp.MustCompile(`(?i)Терминал:\s(?P<pos_id>\d+)\s`)

	merchantPattern = regexp.MustCompile(`(?i)(?:Мерчант:|Пункт обслуживания:)(?:\n|\s)(?P<merchant_num>\d+)\n` +
		`(?P<fin_service>[^\n\d]+)\s(?P<something>A\d+)?`)

	authFootPattern = regexp.MustCompile(`(?i)Сумма \(Руб\):\n(?P<summ>\d+.\d+)(?:\nКомиссия за операцию.*)*` +
		`(?:\n(?P<result>.*)` +
		`\nКод авторизации:\n` +
		`(?P<auth_code>.*))?`)

	// refNumPattern is optional: older slips carry no reference block.
	refNumPattern = regexp.MustCompile(`(?i)Номер ссылки:\n{1,2}` +
		`(?P<ref_num>\d+)\n` +
		`(?P<payment_type>.*)\n`)

	// cardPattern reads the masked card number and holder; cardPatternAlt
	// covers slips where the client line comes before the number.
	cardPattern = regexp.MustCompile(`(?i)Карта:.*\n?[*]+(?P<card_number>\d{4})\n.*` +
		`Клиент:\n*(?P<card_holder>[\p{L}\p{N}_\s]+/(?:\S+)?)?`)
	cardPatternAlt = regexp.MustCompile(`(?i)Карта:...\nКлиент:(?:\n.*){2}` +
		`(?:[*]+)?(?P<card_number>\d{4})\n(?P<card_holder>[\p{L}\p{N}_\s]+/(?:\S+)?)?`)
)

// groups returns the named submatches of the first match, or ok=false.
func groups(re *regexp.Regexp, text string) (map[string]string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string)
	for i, name := range re.SubexpNames() {
		if name != "" {
			out[name] = m[i]
		}
	}
	return out, true
}

// matchFields runs the fixed pattern set against text and merges the named
// groups into one field map. Reference-number fields are optional; any
// other block failing to match voids the whole result.
func matchFields(text string) map[string]string {
	res := make(map[string]string)

	required := []*regexp.Regexp{headPattern, posIDPattern, merchantPattern, authFootPattern}
	for _, re := range required {
		g, ok := groups(re, text)
		if !ok {
			return nil
		}
		for k, v := range g {
			res[k] = v
		}
	}

	og, ok := groups(opPattern, text)
	if !ok {
		if og, ok = groups(opPatternAlt, text); !ok {
			return nil
		}
	}
	for k, v := range og {
		res[k] = v
	}

	cg, ok := groups(cardPattern, text)
	if !ok {
		if cg, ok = groups(cardPatternAlt, text); !ok {
			return nil
		}
	}
	for k, v := range cg {
		res[k] = v
	}

	if rg, ok := groups(refNumPattern, text); ok {
		for k, v := range rg {
			res[k] = v
		}
	} else {
		res["ref_num"] = ""
		res["payment_type"] = ""
	}

	return res
}
