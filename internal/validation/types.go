package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/panelshop/internal/domain"
	"github.com/MrSnakeDoc/panelshop/internal/panel"
)

var digitsRe = regexp.MustCompile(`^\d+$`)

// Digits is a numeric request field sent either as a JSON number or as a
// string of decimal digits. It keeps the textual form forwarded upstream.
type Digits string

func (d *Digits) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*d = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if !digitsRe.MatchString(s) {
			return fmt.Errorf("%q is not a whole number", s)
		}
		*d = Digits(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected a number or a digit string")
	}
	text, err := wholeNumber(n)
	if err != nil {
		return err
	}
	*d = Digits(text)
	return nil
}

// wholeNumber normalises a JSON number such as 1e3 or 20.0 to its digits.
// Negative, fractional and out-of-range values are rejected.
func wholeNumber(n json.Number) (string, error) {
	if digitsRe.MatchString(n.String()) {
		if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
			return "", fmt.Errorf("%s is out of range", n)
		}
		return n.String(), nil
	}
	f, err := n.Float64()
	if err != nil || f < 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return "", fmt.Errorf("%s is not a whole number", n)
	}
	return strconv.FormatInt(int64(f), 10), nil
}

// Int64 returns the value when it is a non-negative whole number that fits
// in an int64.
func (d Digits) Int64() (int64, bool) {
	if !digitsRe.MatchString(string(d)) {
		return 0, false
	}
	i, err := strconv.ParseInt(string(d), 10, 64)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Loose accepts any JSON scalar and keeps its text. Package quantities are
// clamped rather than rejected, so nothing fails at decode time.
type Loose string

func (l *Loose) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Loose(s)
		return nil
	}
	*l = Loose(b)
	return nil
}

// CreateOrderRequest is the payload for POST /v1/orders.
type CreateOrderRequest struct {
	Service   Digits `json:"service" validate:"required"`
	Link      string `json:"link" validate:"required,url"`
	Quantity  Digits `json:"quantity,omitempty"`
	Comments  string `json:"comments,omitempty"`
	Usernames string `json:"usernames,omitempty"`
	Hashtag   string `json:"hashtag,omitempty"`
	Media     string `json:"media,omitempty"`
	Min       Digits `json:"min,omitempty"`
	Max       Digits `json:"max,omitempty"`
	Runs      Digits `json:"runs,omitempty"`
	Interval  Digits `json:"interval,omitempty"`

	// Email optionally binds tracking to the buyer.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// ServiceID is the numeric service id.
func (r CreateOrderRequest) ServiceID() int64 {
	id, _ := r.Service.Int64()
	return id
}

// Params converts the request to the upstream add-order form.
func (r CreateOrderRequest) Params() panel.AddOrderParams {
	return panel.AddOrderParams{
		Service:   string(r.Service),
		Link:      strings.TrimSpace(r.Link),
		Quantity:  string(r.Quantity),
		Comments:  r.Comments,
		Usernames: r.Usernames,
		Hashtag:   r.Hashtag,
		Media:     r.Media,
		Min:       string(r.Min),
		Max:       string(r.Max),
		Runs:      string(r.Runs),
		Interval:  string(r.Interval),
	}
}

// TrackRequest is the optional body of a tracking call.
type TrackRequest struct {
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// QuoteRequest is the payload for POST /api/quote.
type QuoteRequest struct {
	ID       string `json:"id" validate:"required"`
	Quantity Loose  `json:"quantity"`
}

// PackageOrderRequest is the payload for POST /api/order.
type PackageOrderRequest struct {
	ID       string `json:"id" validate:"required"`
	Link     string `json:"link" validate:"required"`
	Quantity Loose  `json:"quantity"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// PackagesRequest replaces the whole package list.
type PackagesRequest struct {
	Packages []domain.Package `json:"packages" validate:"required,dive"`
}
