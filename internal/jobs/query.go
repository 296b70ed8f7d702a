package jobs

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

// ParseDate reads a YYYY-MM-DD string. Impossible days such as 2025-02-30 are rejected
// rather than normalized.
func ParseDate(s string) (Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return Date{}, invalid("expiration", "%q is not YYYY-MM-DD", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Date{}, invalid("expiration", "%q is not YYYY-MM-DD", s)
		}
		nums[i] = n
	}
	d := Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if err := d.Validate(); err != nil {
		return Date{}, err
	}
	return d, nil
}

func (d Date) Validate() error {
	if d.Year < 1 || d.Year > 9999 {
		return invalid("expiration", "year %d out of range", d.Year)
	}
	if d.Month < 1 || d.Month > 12 {
		return invalid("expiration", "month %d out of range", d.Month)
	}
	t := time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC)
	if d.Day < 1 || t.Day() != d.Day || int(t.Month()) != d.Month {
		return invalid("expiration", "%04d-%02d-%02d is not a calendar date", d.Year, d.Month, d.Day)
	}
	return nil
}

func (d Date) String() string {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, time.UTC).Format(dateLayout)
}

// QueryDefinition is one retrieval request. Query is opaque to this client.
type QueryDefinition struct {
	Query      string
	Name       string
	Comment    string
	Expiration *Date
}

func (q QueryDefinition) Validate() error {
	if strings.TrimSpace(q.Query) == "" {
		return invalid("query", "must not be empty")
	}
	if strings.TrimSpace(q.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if strings.TrimSpace(q.Comment) == "" {
		return invalid("comment", "must not be empty")
	}
	if q.Expiration != nil {
		if err := q.Expiration.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ExpirationValue is the wire form of the expiration date: YYYY-MM-DD or empty.
func (q QueryDefinition) ExpirationValue() string {
	if q.Expiration == nil {
		return ""
	}
	return q.Expiration.String()
}

func (q QueryDefinition) String() string {
	return fmt.Sprintf("%s (expires %q)", q.Name, q.ExpirationValue())
}
