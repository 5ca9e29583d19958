package utils

import (
	"strings"
	"time"

	"github.com/badoux/checkmail"
)

// DateLayout is the wire format for all ingestion dates.
const DateLayout = "2006-01-02"

// DefaultSource tags leads submitted without a channel tag.
const DefaultSource = "API_IMPORT"

// APILeadItem is the externally supplied, pre-validation lead shape.
type APILeadItem struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	PostalCode   string `json:"postal_code"`
	City         string `json:"city"`
	ExamCenterID int    `json:"exam_center_id"`
	BranchID     int    `json:"branch_id"`
	Source       string `json:"source"`
	SalesStage   string `json:"sales_stage"`
	ConsentDate  string `json:"consent_date"`  // YYYY-MM-DD
	ResponseDate string `json:"response_date"` // YYYY-MM-DD
}

// ValidationError rejects a single ingestion item with a stable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(reason string) (APILeadItem, error) {
	return APILeadItem{}, &ValidationError{Reason: reason}
}

// SanitizeLeadItem validates and normalizes a raw ingestion item. It
// returns a copy of the item with first_name, last_name, email, phone
// and source replaced by their normalized forms; all other fields pass
// through unchanged. Rules apply in order: required first name, at
// least one contact channel, a parseable response date, email and
// phone normalization, source defaulting, consent date parsing. The
// function is pure: no I/O, no side effects.
func SanitizeLeadItem(item APILeadItem) (APILeadItem, error) {
	out := item

	out.FirstName = strings.TrimSpace(item.FirstName)
	if out.FirstName == "" {
		return invalid("first_name is required")
	}
	out.LastName = strings.TrimSpace(item.LastName)

	email := strings.TrimSpace(item.Email)
	phone := strings.TrimSpace(item.Phone)
	if email == "" && phone == "" {
		return invalid("email or phone is required")
	}

	if strings.TrimSpace(item.ResponseDate) == "" {
		return invalid("response_date is required")
	}
	if _, err := time.Parse(DateLayout, strings.TrimSpace(item.ResponseDate)); err != nil {
		return invalid("response_date must be a valid date (YYYY-MM-DD)")
	}
	out.ResponseDate = strings.TrimSpace(item.ResponseDate)

	if email != "" {
		email = strings.ToLower(email)
		if !validEmail(email) {
			return invalid("email format is invalid")
		}
	}
	out.Email = email

	if phone != "" {
		phone = digitsOnly(phone)
		if len(phone) < 10 {
			return invalid("phone must contain at least 10 digits")
		}
	}
	out.Phone = phone

	source := strings.TrimSpace(item.Source)
	if source == "" {
		source = DefaultSource
	} else {
		source = strings.ToUpper(source)
	}
	out.Source = source

	if consent := strings.TrimSpace(item.ConsentDate); consent != "" {
		if _, err := time.Parse(DateLayout, consent); err != nil {
			return invalid("consent_date must be a valid date (YYYY-MM-DD)")
		}
		out.ConsentDate = consent
	} else {
		out.ConsentDate = ""
	}

	return out, nil
}

// validEmail checks the basic local@domain.tld shape. checkmail covers
// the local/domain syntax; the explicit dot check rules out bare hosts.
func validEmail(email string) bool {
	if err := checkmail.ValidateFormat(email); err != nil {
		return false
	}
	at := strings.LastIndex(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
