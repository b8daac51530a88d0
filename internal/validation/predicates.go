package validation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dharsanguruparan/OfferDesk/internal/model"
)

var (
	// Letters separated by single spaces, no leading/trailing space.
	alphaWordsPattern = regexp.MustCompile(`^[A-Za-z]+( [A-Za-z]+)*$`)
	emailPattern      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@(gmail|outlook)\.(com|in|org|co)(\.[a-z]{2})?$`)
	mobilePattern     = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	// 0-100 with at most two decimals.
	percentagePattern = regexp.MustCompile(`^(100(\.0{1,2})?|[0-9]{1,2}(\.[0-9]{1,2})?)$`)
	alphanumPattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	integerPattern    = regexp.MustCompile(`^[0-9]+$`)
)

// IsAlphaWords reports whether s is letters with single interior spaces.
func IsAlphaWords(s string) bool { return alphaWordsPattern.MatchString(s) }

// IsAllowedEmail reports whether s is on an allowed mail domain. Case is
// ignored.
func IsAllowedEmail(s string) bool { return emailPattern.MatchString(NormalizeEmail(s)) }

// NormalizeEmail is the form an address is stored and looked up in: trimmed
// and lower-cased, since both allowed providers treat addresses
// case-insensitively.
func NormalizeEmail(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// IsMobileNumber reports whether s is 10 digits starting with 6-9.
func IsMobileNumber(s string) bool { return mobilePattern.MatchString(s) }

// IsPercentage reports whether s is a number in [0,100] with at most 2 decimals.
func IsPercentage(s string) bool { return percentagePattern.MatchString(s) }

// IsAlphanumeric reports whether s is non-empty and only letters and digits.
func IsAlphanumeric(s string) bool { return alphanumPattern.MatchString(s) }

// IsDate reports whether s is a valid YYYY-MM-DD calendar date.
func IsDate(s string) bool {
	_, err := model.ParseDate(s)
	return err == nil
}

// ParseInt parses a plain non-negative decimal integer.
func ParseInt(s string) (int64, bool) {
	if !integerPattern.MatchString(s) {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// MinSalary is the lowest accepted expected salary.
const MinSalary = 100000

// Completion year bounds, inclusive. The upper bound keeps years four-digit
// and inside a 32-bit INTEGER column.
const (
	MinEducationYear = 1985
	MaxEducationYear = 9999
)

// Experience bounds, inclusive.
const (
	MinExperienceYears = 1
	MaxExperienceYears = 40
)

// MinAddressLength is the shortest accepted permanent address.
const MinAddressLength = 5

// salaryReason checks the expected salary value.
func salaryReason(s string) Reason {
	n, ok := ParseInt(s)
	if !ok {
		return ReasonNotNumeric
	}
	if n < MinSalary {
		return ReasonBelowMinimum
	}
	return ""
}

func educationYearReason(s string) Reason {
	n, ok := ParseInt(s)
	if !ok {
		return ReasonNotNumeric
	}
	if n < MinEducationYear {
		return ReasonBelowMinimum
	}
	if n > MaxEducationYear {
		return ReasonOutOfRange
	}
	return ""
}

func experienceYearsReason(s string) Reason {
	n, ok := ParseInt(s)
	if !ok {
		return ReasonNotNumeric
	}
	if n < MinExperienceYears || n > MaxExperienceYears {
		return ReasonOutOfRange
	}
	return ""
}

func addressReason(s string) Reason {
	if utf8.RuneCountInString(strings.TrimSpace(s)) < MinAddressLength {
		return ReasonTooShort
	}
	return ""
}
