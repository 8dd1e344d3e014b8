package panel

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Number is a numeric field that panels send either as a JSON number or as a
// quoted decimal ("0.45"). null and "" decode to zero.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
		if s == "" {
			*n = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid number %s", b)
	}
	*n = Number(f)
	return nil
}

func (n Number) Float64() float64 { return float64(n) }
func (n Number) Int64() int64     { return int64(n) }

// Flag is a capability flag that may arrive as a bool, 0/1 or a string.
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch s {
	case "null", "false", "0", `""`, `"0"`, `"false"`:
		*f = false
		return nil
	case "true", "1", `"1"`, `"true"`:
		*f = true
		return nil
	}
	if num, err := strconv.ParseFloat(s, 64); err == nil {
		*f = num != 0
		return nil
	}
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return fmt.Errorf("invalid flag %s", b)
	}
	*f = str != ""
	return nil
}

// Service is one row of the upstream service list.
type Service struct {
	ID       Number `json:"service"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Category string `json:"category"`
	Rate     Number `json:"rate"` // price per 1000 units
	Min      Number `json:"min"`
	Max      Number `json:"max"`
	Refill   Flag   `json:"refill"`
	Cancel   Flag   `json:"cancel"`
}

// AddOrderParams are the action-specific fields of an "add" call.
// Empty fields are not sent.
type AddOrderParams struct {
	Service   string
	Link      string
	Quantity  string
	Comments  string
	Usernames string
	Hashtag   string
	Media     string
	Min       string
	Max       string
	Runs      string
	Interval  string
}

func (p AddOrderParams) values() url.Values {
	v := url.Values{}
	set := func(k, val string) {
		if val != "" {
			v.Set(k, val)
		}
	}
	set("service", p.Service)
	set("link", p.Link)
	set("quantity", p.Quantity)
	set("comments", p.Comments)
	set("usernames", p.Usernames)
	set("hashtag", p.Hashtag)
	set("media", p.Media)
	set("min", p.Min)
	set("max", p.Max)
	set("runs", p.Runs)
	set("interval", p.Interval)
	return v
}

// AddOrderResult is the panel's answer to "add".
type AddOrderResult struct {
	Order Number `json:"order"`
}

// OrderStatus is the panel's answer to "status". Pointer fields stay nil when
// the panel omits them.
type OrderStatus struct {
	Status     string  `json:"status"`
	Charge     *Number `json:"charge,omitempty"`
	StartCount *Number `json:"start_count,omitempty"`
	Remains    *Number `json:"remains,omitempty"`
	Currency   string  `json:"currency,omitempty"`
}

// Balance is the panel's answer to "balance".
type Balance struct {
	Balance  Number `json:"balance"`
	Currency string `json:"currency"`
}

// Error is returned for every failed panel call: transport errors, HTTP
// statuses at or above the failure threshold, error-shaped bodies and
// undecodable payloads.
type Error struct {
	Action  string
	Status  int    // 0 when no response was received
	Message string // upstream "error" field or a short local tag
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Status != 0:
		return fmt.Sprintf("panel %s: HTTP %d: %s", e.Action, e.Status, e.Message)
	case e.Message != "":
		return fmt.Sprintf("panel %s: %s", e.Action, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("panel %s: HTTP %d", e.Action, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("panel %s: %v", e.Action, e.Err)
	default:
		return fmt.Sprintf("panel %s failed", e.Action)
	}
}

func (e *Error) Unwrap() error { return e.Err }
