// Package checks provides standard value tests for common configuration
// patterns, for use as the Test option when declaring schema rules.
//
// Constructors (Interval, Regex, FilePath) build a treedoc.TestFunc from
// their parameters; the remaining Is* functions are TestFuncs themselves.
// Each test has a Match* variant that takes just the value, so the same
// checking can be reused outside a schema.
package checks

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/treedoc/treedoc"
)

// IntervalOption adjusts which interval bounds are inclusive. The default
// interval is [lower, upper), consistent with ranges elsewhere.
type IntervalOption int

const (
	// ExcludeLower excludes the lower bound from the interval.
	ExcludeLower IntervalOption = iota
	// IncludeUpper includes the upper bound in the interval.
	IncludeUpper
)

// Interval builds a test that the value lies within the interval. Bounds
// may be numeric or strings (compared lexicographically); mixing bound and
// value kinds fails the test. An empty or inverted interval panics at
// construction.
func Interval(lower, upper any, opts ...IntervalOption) treedoc.TestFunc {
	excludeLower := false
	includeUpper := false
	for _, o := range opts {
		switch o {
		case ExcludeLower:
			excludeLower = true
		case IncludeUpper:
			includeUpper = true
		}
	}
	lowerSym, upperSym := "[", ")"
	if excludeLower {
		lowerSym = "("
	}
	if includeUpper {
		upperSym = "]"
	}
	intervalStr := fmt.Sprintf("%s%s, %s%s", lowerSym, repr(lower), repr(upper), upperSym)

	c, ok := compare(lower, upper)
	if !ok || c > 0 || (c == 0 && (excludeLower || !includeUpper)) {
		panic(fmt.Sprintf("checks: invalid interval %q", intervalStr))
	}

	return func(doc treedoc.Node, path string, value any) string {
		cl, ok := compare(value, lower)
		if !ok {
			return fmt.Sprintf("%s is not comparable with the interval %s", repr(value), intervalStr)
		}
		if cl < 0 || (cl <= 0 && excludeLower) {
			return fmt.Sprintf("%s is below the interval %s", repr(value), intervalStr)
		}
		cu, ok := compare(value, upper)
		if !ok {
			return fmt.Sprintf("%s is not comparable with the interval %s", repr(value), intervalStr)
		}
		if cu > 0 || (cu >= 0 && !includeUpper) {
			return fmt.Sprintf("%s is above the interval %s", repr(value), intervalStr)
		}
		return ""
	}
}

// Regex builds a test that the value matches the expression. The expression
// is searched, not anchored; anchor explicitly to match the whole value.
func Regex(expr string) treedoc.TestFunc {
	rex := regexp.MustCompile(expr)
	return func(doc treedoc.Node, path string, value any) string {
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", repr(value))
		}
		if !rex.MatchString(s) {
			return fmt.Sprintf("%q does not match /%s/", s, expr)
		}
		return ""
	}
}

// NotRegex builds a test that the value does not match the expression.
func NotRegex(expr string) treedoc.TestFunc {
	rex := regexp.MustCompile(expr)
	return func(doc treedoc.Node, path string, value any) string {
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string", repr(value))
		}
		if rex.MatchString(s) {
			return fmt.Sprintf("%q matches /%s/", s, expr)
		}
		return ""
	}
}

var ipv4Pattern = regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)\.(\d+)$`)

// MatchIPv4Address matches the value as a dotted-quad IPv4 address.
func MatchIPv4Address(value any) string {
	s, ok := value.(string)
	if !ok {
		return fmt.Sprintf("%s must be a string in IPv4 dotted-quad notation", repr(value))
	}
	m := ipv4Pattern.FindStringSubmatch(s)
	if m == nil {
		return fmt.Sprintf("%q must be in IPv4 dotted-quad notation", s)
	}
	ordinals := []string{"1st", "2nd", "3rd", "4th"}
	for i, part := range m[1:] {
		// ParseUint only fails on overflow here; the pattern admits digits
		// only, so that too means the octet is out of range.
		octet, err := strconv.ParseUint(part, 10, 64)
		if err != nil || octet > 255 {
			return fmt.Sprintf("%s octet of %q exceeds 255", ordinals[i], s)
		}
	}
	return ""
}

// IPv4Address tests that the value is a valid dotted-quad IPv4 address.
func IPv4Address(doc treedoc.Node, path string, value any) string {
	return MatchIPv4Address(value)
}

var domainLabelBad = regexp.MustCompile(`([^A-Za-z0-9-])`)
var allDigits = regexp.MustCompile(`^[0-9]+$`)

// MatchDomainName matches the value against the format of a DNS domain
// name.
func MatchDomainName(value any) string {
	s, ok := value.(string)
	if !ok || len(s) == 0 {
		return fmt.Sprintf("domain %s cannot be empty", repr(value))
	}
	labels := strings.Split(s, ".")
	if len(labels) > 127 {
		return fmt.Sprintf("domain %q cannot have more than 127 labels", s)
	}
	for _, label := range labels {
		if len(label) == 0 {
			return fmt.Sprintf("domain %q cannot have an empty label", s)
		}
		if len(label) >= 63 {
			return fmt.Sprintf("domain %q cannot have a 63+ byte label", s)
		}
		if m := domainLabelBad.FindStringSubmatch(label); m != nil {
			return fmt.Sprintf("domain %q cannot contain %q", s, m[1])
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Sprintf("domain %q label cannot start or end with \"-\"", s)
		}
	}
	if allDigits.MatchString(labels[len(labels)-1]) {
		return fmt.Sprintf("domain %q top-level domain cannot be only digits", s)
	}
	return ""
}

// DomainName tests that the value matches the format of a DNS domain name.
func DomainName(doc treedoc.Node, path string, value any) string {
	return MatchDomainName(value)
}

var (
	emailParts        = regexp.MustCompile(`^(.*)@(.*)$`)
	emailUnquotedBad  = regexp.MustCompile("([^A-Za-z0-9!#$%&'*+/=?^_`{|}~.-])")
	emailQuotedBad    = regexp.MustCompile("([^A-Za-z0-9!#$%&'*+/=?^_`{|}~.(),:;<>@\\[\\] -])")
)

// MatchEmailAddress matches the value against the format of an email
// address. Quoted user parts are likely still both over and under
// restrictive; authoritative parsing is out of scope.
func MatchEmailAddress(value any) string {
	s, ok := value.(string)
	if !ok || len(s) == 0 {
		return fmt.Sprintf("email address %s cannot be empty", repr(value))
	}
	m := emailParts.FindStringSubmatch(s)
	if m == nil {
		return fmt.Sprintf("%q is not of the form username@domain", s)
	}
	userpart, domainpart := m[1], m[2]
	if len(userpart) == 0 {
		return fmt.Sprintf("%q has empty userpart", s)
	}
	if len(userpart) >= 64 {
		return fmt.Sprintf("%q has 64+ byte userpart", s)
	}
	if !strings.HasPrefix(userpart, `"`) || !strings.HasSuffix(userpart, `"`) {
		if m := emailUnquotedBad.FindStringSubmatch(userpart); m != nil {
			return fmt.Sprintf("%q unquoted userpart cannot contain %q", s, m[1])
		}
		if strings.HasPrefix(userpart, ".") || strings.HasSuffix(userpart, ".") {
			return fmt.Sprintf("%q unquoted userpart cannot start or end with \".\"", s)
		}
		if strings.Contains(userpart, "..") {
			return fmt.Sprintf("%q unquoted userpart cannot contain \"..\"", s)
		}
	} else {
		quoted := userpart[1 : len(userpart)-1]
		if m := emailQuotedBad.FindStringSubmatch(quoted); m != nil {
			return fmt.Sprintf("%q userpart quoted content cannot contain %q", s, m[1])
		}
	}
	if len(domainpart) == 0 {
		return fmt.Sprintf("%q has empty domainpart", s)
	}
	if len(domainpart) >= 63 {
		return fmt.Sprintf("%q has 63+ byte domainpart", s)
	}
	return MatchDomainName(domainpart)
}

// EmailAddress tests that the value matches the format of an email address.
func EmailAddress(doc treedoc.Node, path string, value any) string {
	return MatchEmailAddress(value)
}

var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^((?:[A-Za-z]{3,9}:(?:\/\/)?)` +
		`(?:[\-;:&=\+\$,\w]+@)?[A-Za-z0-9\.\-]+` +
		`(?::[0-9]+)?(?:(?:\/[\+~%\/\.\w\-_]*)?\??(?:[\-\+\/=&;%@\.\w_]*)#?` +
		`(?:[\.\!\/\\\w&=-]*))?)$`),
	regexp.MustCompile(`^((?:www\.|[\-;:&=\+\$,\w]+@)[A-Za-z0-9\.\-]+` +
		`(?:(?:\/[\+~%\/\.\w\-_]*)?\??(?:[\-\+\/=&;%@\.\w_]*)` +
		`#?(?:[\.\!\/\\\w]*))?)$`),
}

// MatchURL matches the value against the format of a URL, best effort.
func MatchURL(value any) string {
	s, ok := value.(string)
	if !ok || len(s) == 0 {
		return fmt.Sprintf("url %s cannot be empty", repr(value))
	}
	for _, rex := range urlPatterns {
		if rex.MatchString(s) {
			return ""
		}
	}
	return fmt.Sprintf("%q was not recognized as a valid url", s)
}

// URL tests that the value matches the format of a URL.
func URL(doc treedoc.Node, path string, value any) string {
	return MatchURL(value)
}

// FilePath builds a test of the value against file-metadata properties.
// Each property is one of:
//
//	[!]exists   the path exists (!: does not exist)
//	[!]isdir    the path is a directory
//	[!]isfile   the path is a regular file
//	[!]islink   the path is a symbolic link
//
// Properties are tested in the order given, so they can be strung together
// for the most helpful first error (e.g. exists, isdir). An unknown
// property panics at construction.
func FilePath(props ...string) treedoc.TestFunc {
	for _, p := range props {
		switch p {
		case "exists", "!exists", "isdir", "!isdir", "isfile", "!isfile", "islink", "!islink":
		default:
			panic(fmt.Sprintf("checks: unknown file path property %q", p))
		}
	}
	return func(doc treedoc.Node, path string, value any) string {
		s, ok := value.(string)
		if !ok {
			return fmt.Sprintf("%s must be a string path", repr(value))
		}
		var res []string
		for _, p := range props {
			if msg := checkFileProp(p, s); msg != "" {
				res = append(res, msg)
			}
		}
		return strings.Join(res, " and ")
	}
}

func checkFileProp(prop, path string) string {
	fi, err := os.Stat(path)
	exists := err == nil
	li, lerr := os.Lstat(path)
	isLink := lerr == nil && li.Mode()&os.ModeSymlink != 0
	switch prop {
	case "exists":
		if !exists && !isLink {
			return fmt.Sprintf("%q does not exist", path)
		}
	case "!exists":
		if exists || isLink {
			return fmt.Sprintf("%q exists", path)
		}
	case "isdir":
		if !exists || !fi.IsDir() {
			return fmt.Sprintf("%q is not a directory", path)
		}
	case "!isdir":
		if exists && fi.IsDir() {
			return fmt.Sprintf("%q is a directory", path)
		}
	case "isfile":
		if !exists || !fi.Mode().IsRegular() {
			return fmt.Sprintf("%q is not a file", path)
		}
	case "!isfile":
		if exists && fi.Mode().IsRegular() {
			return fmt.Sprintf("%q is a file", path)
		}
	case "islink":
		if !isLink {
			return fmt.Sprintf("%q is not a symlink", path)
		}
	case "!islink":
		if isLink {
			return fmt.Sprintf("%q is a symlink", path)
		}
	}
	return ""
}

// compare orders two values of the same kind: integers, floats and strings.
// Integers and floats compare across kinds.
func compare(a, b any) (int, bool) {
	af, aNum := toFloat(a)
	bf, bNum := toFloat(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, true
		case af > bf:
			return 1, true
		default:
			return 0, true
		}
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case float32:
		return float64(n), true
	default:
		return 0, false
	}
}

// repr renders a value the way diagnostics expect: strings quoted,
// everything else in display form.
func repr(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}
