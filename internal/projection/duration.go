package projection

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses the RFC 5545 duration subset used by calendar
// stores: [+|-]P[nW | [nD][T[nH][nM][nS]]].
//
// "P0S" (the DefaultDuration token) is accepted as a zero duration even
// though a strict reading of the grammar would require "PT0S"; legacy
// stores emit the short form.
func ParseDuration(token string) (time.Duration, error) {
	orig := token
	if token == "" {
		return 0, fmt.Errorf("parse duration: empty token")
	}

	negative := false
	switch token[0] {
	case '-':
		negative = true
		token = token[1:]
	case '+':
		token = token[1:]
	}
	if len(token) == 0 || token[0] != 'P' {
		return 0, fmt.Errorf("parse duration %q: missing P designator", orig)
	}
	token = token[1:]

	var total time.Duration
	inTime := false
	for len(token) > 0 {
		if token[0] == 'T' {
			if inTime {
				return 0, fmt.Errorf("parse duration %q: duplicate T designator", orig)
			}
			inTime = true
			token = token[1:]
			continue
		}
		i := 0
		for i < len(token) && token[i] >= '0' && token[i] <= '9' {
			i++
		}
		if i == 0 || i == len(token) {
			return 0, fmt.Errorf("parse duration %q: malformed component", orig)
		}
		n, err := strconv.ParseInt(token[:i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("parse duration %q: %w", orig, err)
		}
		unit := token[i]
		token = token[i+1:]
		switch unit {
		case 'W':
			total += time.Duration(n) * 7 * 24 * time.Hour
		case 'D':
			total += time.Duration(n) * 24 * time.Hour
		case 'H':
			if !inTime {
				return 0, fmt.Errorf("parse duration %q: H outside time section", orig)
			}
			total += time.Duration(n) * time.Hour
		case 'M':
			if !inTime {
				return 0, fmt.Errorf("parse duration %q: M outside time section", orig)
			}
			total += time.Duration(n) * time.Minute
		case 'S':
			// Tolerated outside the time section for "P0S".
			total += time.Duration(n) * time.Second
		default:
			return 0, fmt.Errorf("parse duration %q: unknown unit %q", orig, string(unit))
		}
	}

	if negative {
		total = -total
	}
	return total, nil
}

// FormatDuration renders a duration as an RFC 5545 token. Zero renders
// as DefaultDuration for compatibility with what legacy stores emit.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return DefaultDuration
	}
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
		d = -d
	}
	b.WriteByte('P')
	if days := d / (24 * time.Hour); days > 0 {
		fmt.Fprintf(&b, "%dD", days)
		d -= days * 24 * time.Hour
	}
	if d > 0 {
		b.WriteByte('T')
		if h := d / time.Hour; h > 0 {
			fmt.Fprintf(&b, "%dH", h)
			d -= h * time.Hour
		}
		if m := d / time.Minute; m > 0 {
			fmt.Fprintf(&b, "%dM", m)
			d -= m * time.Minute
		}
		if s := d / time.Second; s > 0 {
			fmt.Fprintf(&b, "%dS", s)
		}
	}
	return b.String()
}
