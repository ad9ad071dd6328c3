package helpers

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	durationRegex = regexp.MustCompile(`^(?P<years>\d+y)?(?P<days>\d+d)?(?P<hours>\d+h)?(?P<minutes>\d+m)?(?P<seconds>\d+s)?$`)
	sizeRegex     = regexp.MustCompile(`^(\d+)\s*([kmg]?)b?$`)
)

func PrettyDuration(d time.Duration) string {
	s := d.Round(time.Second).String()
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

func ParseDuration(str string) (time.Duration, error) {
	matches := durationRegex.FindStringSubmatch(strings.TrimSpace(str))
	if matches == nil {
		return 0, fmt.Errorf("can't parse duration '%s'", str)
	}
	years := ParseInt64(matches[1])
	days := ParseInt64(matches[2])
	hours := ParseInt64(matches[3])
	minutes := ParseInt64(matches[4])
	seconds := ParseInt64(matches[5])

	hour := int64(time.Hour)
	minute := int64(time.Minute)
	second := int64(time.Second)
	duration := time.Duration(years*24*365*hour + days*24*hour + hours*hour + minutes*minute + seconds*second)
	return duration, nil
}

func ParseInt64(value string) int64 {
	if len(value) == 0 {
		return 0
	}
	parsed, err := strconv.Atoi(value[:len(value)-1])
	if err != nil {
		return 0
	}
	return int64(parsed)
}

// ParseSize understands plain bytes and k/m/g suffixes: "512", "64k", "10MB".
func ParseSize(str string) (int64, error) {
	matches := sizeRegex.FindStringSubmatch(strings.ToLower(strings.TrimSpace(str)))
	if matches == nil {
		return 0, fmt.Errorf("can't parse size '%s'", str)
	}
	size, err := strconv.ParseInt(matches[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("can't parse size '%s' with: %v", str, err)
	}
	switch matches[2] {
	case "k":
		size <<= 10
	case "m":
		size <<= 20
	case "g":
		size <<= 30
	}
	return size, nil
}

// RecoverTo turns a panic into an error, use with defer.
func RecoverTo(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok {
		*err = e
		return
	}
	*err = fmt.Errorf("panic: %v", r)
}
