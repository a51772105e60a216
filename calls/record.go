package calls

import (
	"fmt"
	"strings"
	"time"
)

// TimeLayout is the only timestamp layout accepted in call logs.
const TimeLayout = "2006-01-02 15:04:05"

const areaCodeLen = 3

// CallRecord is one parsed call-log line. The area code is always derived
// from the phone number.
type CallRecord struct {
	ts       time.Time
	number   string
	areaCode string
}

// NewCallRecord builds a record and extracts its area code: the three
// characters following the first '(' of the number.
func NewCallRecord(ts time.Time, number string) (CallRecord, error) {
	area, err := AreaCodeOf(number)
	if err != nil {
		return CallRecord{}, err
	}
	return CallRecord{ts: ts, number: number, areaCode: area}, nil
}

func (r CallRecord) Timestamp() time.Time { return r.ts }
func (r CallRecord) PhoneNumber() string  { return r.number }
func (r CallRecord) AreaCode() string     { return r.areaCode }

func (r CallRecord) String() string {
	return fmt.Sprintf("%s: %s", r.ts.Format(TimeLayout), r.number)
}

// AreaCodeOf extracts the area code of a phone number such as "+1(412)5551234".
func AreaCodeOf(number string) (string, error) {
	i := strings.IndexByte(number, '(')
	if i < 0 {
		return "", ErrMissingAreaCode
	}
	rest := number[i+1:]
	if len(rest) < areaCodeLen {
		return "", fmt.Errorf("%w: fewer than %d characters after '('", ErrMissingAreaCode, areaCodeLen)
	}
	return rest[:areaCodeLen], nil
}
