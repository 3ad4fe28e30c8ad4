package value

import (
	"fmt"
	"strconv"
	"strings"
)

// Precision records how much of a Date/DateTime/Time literal was
// specified; FHIRPath comparisons and equality are precision-sensitive
// (two values are only comparable to the coarser of their precisions).
type Precision uint8

const (
	PrecisionYear Precision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionHour
	PrecisionMinute
	PrecisionSecond
	PrecisionMillisecond
)

// DateTimeValue is the shared representation for Date, DateTime, and
// Time values (spec.md §3). Unset fields beyond Precision are zero.
type DateTimeValue struct {
	Year         int
	Month        int // 1-12
	Day          int // 1-31
	Hour         int
	Minute       int
	Second       int
	Nanosecond   int
	Precision    Precision
	HasOffset    bool
	OffsetIsUTC  bool // 'Z'
	OffsetMinute int  // signed, minutes east of UTC; meaningful iff HasOffset && !OffsetIsUTC
}

// ParseDate parses a '@'-prefixed Date literal lexeme (e.g. "@2015-02-07").
func ParseDate(lexeme string) (DateTimeValue, error) {
	body := strings.TrimPrefix(lexeme, "@")
	var v DateTimeValue
	parts := strings.SplitN(body, "-", 3)
	var err error
	if v.Year, err = strconv.Atoi(parts[0]); err != nil {
		return v, fmt.Errorf("invalid year in date literal %q: %w", lexeme, err)
	}
	v.Precision = PrecisionYear
	if len(parts) > 1 {
		if v.Month, err = strconv.Atoi(parts[1]); err != nil {
			return v, fmt.Errorf("invalid month in date literal %q: %w", lexeme, err)
		}
		v.Precision = PrecisionMonth
	}
	if len(parts) > 2 {
		if v.Day, err = strconv.Atoi(parts[2]); err != nil {
			return v, fmt.Errorf("invalid day in date literal %q: %w", lexeme, err)
		}
		v.Precision = PrecisionDay
	}
	return v, nil
}

// ParseTime parses a '@T'-prefixed Time literal lexeme (e.g. "@T13:28:17").
func ParseTime(lexeme string) (DateTimeValue, error) {
	body := strings.TrimPrefix(lexeme, "@T")
	return parseTimeFormat(body)
}

// ParseDateTime parses a '@'-prefixed DateTime literal lexeme
// (e.g. "@2015-02-07T13:28:17-05:00").
func ParseDateTime(lexeme string) (DateTimeValue, error) {
	body := strings.TrimPrefix(lexeme, "@")
	datePart, rest, hasTime := strings.Cut(body, "T")
	v, err := ParseDate("@" + datePart)
	if err != nil {
		return v, err
	}
	if !hasTime || rest == "" {
		return v, nil
	}

	timeBody, offset, hasOffset := splitOffset(rest)
	tv, err := parseTimeFormat(timeBody)
	if err != nil {
		return v, err
	}
	v.Hour, v.Minute, v.Second, v.Nanosecond, v.Precision = tv.Hour, tv.Minute, tv.Second, tv.Nanosecond, tv.Precision
	if hasOffset {
		if offset == "Z" {
			v.HasOffset, v.OffsetIsUTC = true, true
		} else {
			mins, err := parseOffsetMinutes(offset)
			if err != nil {
				return v, err
			}
			v.HasOffset, v.OffsetMinute = true, mins
		}
	}
	return v, nil
}

func splitOffset(s string) (body, offset string, hasOffset bool) {
	if strings.HasSuffix(s, "Z") {
		return s[:len(s)-1], "Z", true
	}
	// Offsets look like +05:00 or -05:00; scan from the right for the
	// sign, skipping over the leading digits of the time-of-day itself.
	if idx := strings.LastIndexAny(s, "+-"); idx > 0 {
		return s[:idx], s[idx:], true
	}
	return s, "", false
}

func parseOffsetMinutes(offset string) (int, error) {
	sign := 1
	if strings.HasPrefix(offset, "-") {
		sign = -1
	}
	offset = strings.TrimPrefix(strings.TrimPrefix(offset, "+"), "-")
	hh, mm, _ := strings.Cut(offset, ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid timezone offset %q: %w", offset, err)
	}
	m := 0
	if mm != "" {
		if m, err = strconv.Atoi(mm); err != nil {
			return 0, fmt.Errorf("invalid timezone offset %q: %w", offset, err)
		}
	}
	return sign * (h*60 + m), nil
}

func parseTimeFormat(body string) (DateTimeValue, error) {
	var v DateTimeValue
	if body == "" {
		return v, nil
	}
	hh, rest, hasMin := strings.Cut(body, ":")
	h, err := strconv.Atoi(hh)
	if err != nil {
		return v, fmt.Errorf("invalid hour in time %q: %w", body, err)
	}
	v.Hour, v.Precision = h, PrecisionHour
	if !hasMin {
		return v, nil
	}

	mm, rest2, hasSec := strings.Cut(rest, ":")
	m, err := strconv.Atoi(mm)
	if err != nil {
		return v, fmt.Errorf("invalid minute in time %q: %w", body, err)
	}
	v.Minute, v.Precision = m, PrecisionMinute
	if !hasSec {
		return v, nil
	}

	secStr, fracStr, hasFrac := strings.Cut(rest2, ".")
	s, err := strconv.Atoi(secStr)
	if err != nil {
		return v, fmt.Errorf("invalid second in time %q: %w", body, err)
	}
	v.Second, v.Precision = s, PrecisionSecond
	if hasFrac {
		frac := fracStr
		for len(frac) < 9 {
			frac += "0"
		}
		ns, err := strconv.Atoi(frac[:9])
		if err != nil {
			return v, fmt.Errorf("invalid fractional second in time %q: %w", body, err)
		}
		v.Nanosecond, v.Precision = ns, PrecisionMillisecond
	}
	return v, nil
}

func (d DateTimeValue) String() string {
	var b strings.Builder
	if d.Precision >= PrecisionYear && d.hasDateComponent() {
		fmt.Fprintf(&b, "%04d", d.Year)
		if d.Precision >= PrecisionMonth {
			fmt.Fprintf(&b, "-%02d", d.Month)
		}
		if d.Precision >= PrecisionDay {
			fmt.Fprintf(&b, "-%02d", d.Day)
		}
	}
	if d.Precision >= PrecisionHour {
		if d.hasDateComponent() {
			b.WriteByte('T')
		}
		fmt.Fprintf(&b, "%02d", d.Hour)
		if d.Precision >= PrecisionMinute {
			fmt.Fprintf(&b, ":%02d", d.Minute)
		}
		if d.Precision >= PrecisionSecond {
			fmt.Fprintf(&b, ":%02d", d.Second)
		}
		if d.Precision >= PrecisionMillisecond {
			fmt.Fprintf(&b, ".%03d", d.Nanosecond/1_000_000)
		}
		if d.HasOffset {
			if d.OffsetIsUTC {
				b.WriteByte('Z')
			} else {
				sign := byte('+')
				mins := d.OffsetMinute
				if mins < 0 {
					sign = '-'
					mins = -mins
				}
				fmt.Fprintf(&b, "%c%02d:%02d", sign, mins/60, mins%60)
			}
		}
	}
	return b.String()
}

func (d DateTimeValue) hasDateComponent() bool {
	return d.Year != 0 || d.Precision <= PrecisionDay
}

// Compare orders two DateTimeValues at the coarser of their two
// precisions: fields finer than that precision are ignored, so values
// of different precisions that agree on the shared fields compare as
// equal. Timezone offsets are not compared. ok is always true.
func (d DateTimeValue) Compare(other DateTimeValue) (cmp int, ok bool) {
	prec := d.Precision
	if other.Precision < prec {
		prec = other.Precision
	}
	fields := [][2]int{
		{d.Year, other.Year},
	}
	if prec >= PrecisionMonth {
		fields = append(fields, [2]int{d.Month, other.Month})
	}
	if prec >= PrecisionDay {
		fields = append(fields, [2]int{d.Day, other.Day})
	}
	if prec >= PrecisionHour {
		fields = append(fields, [2]int{d.Hour, other.Hour})
	}
	if prec >= PrecisionMinute {
		fields = append(fields, [2]int{d.Minute, other.Minute})
	}
	if prec >= PrecisionSecond {
		fields = append(fields, [2]int{d.Second, other.Second})
	}
	if prec >= PrecisionMillisecond {
		fields = append(fields, [2]int{d.Nanosecond, other.Nanosecond})
	}
	for _, f := range fields {
		if f[0] != f[1] {
			if f[0] < f[1] {
				return -1, true
			}
			return 1, true
		}
	}
	return 0, true
}

// Equal reports whether two DateTimeValues have the same precision and
// the same field values up to that precision (FHIRPath equality, not
// equivalence). Timezone offsets are not compared or normalized.
func (d DateTimeValue) Equal(other DateTimeValue) bool {
	if d.Precision != other.Precision {
		return false
	}
	cmp, ok := d.Compare(other)
	return ok && cmp == 0
}
