package models

import (
	"math"
	"time"
)

// ListingType is the visibility tier of a listing.
type ListingType string

const (
	ListingFree    ListingType = "free"
	ListingPremium ListingType = "premium"
)

// PaymentStatus is only meaningful for premium listings.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// SourceWeb marks listings created through the posting form.
const SourceWeb = "web"

// Listing represents a row of the jobs table.
// Nullable columns are pointers so that absent values round-trip as NULL.
type Listing struct {
	ID            string         `json:"id,omitempty"`
	Title         string         `json:"title"`
	Company       string         `json:"company"`
	Location      string         `json:"location"`
	Description   string         `json:"description"`
	Category      *string        `json:"category,omitempty"`
	Salary        *string        `json:"salary,omitempty"`
	Phone         *string        `json:"phone,omitempty"`
	Email         *string        `json:"email,omitempty"`
	Type          ListingType    `json:"type"`
	PaymentStatus *PaymentStatus `json:"payment_status,omitempty"`
	IsActive      bool           `json:"is_active"`
	PostedAt      *time.Time     `json:"posted_at,omitempty"`
	ExpiresAt     *time.Time     `json:"expires_at,omitempty"`
	CreatedAt     *time.Time     `json:"created_at,omitempty"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
	Source        string         `json:"source"`
	URL           string         `json:"url"`

	TitleEN       *string `json:"title_en,omitempty"`
	TitleZH       *string `json:"title_zh,omitempty"`
	TitleRU       *string `json:"title_ru,omitempty"`
	TitleES       *string `json:"title_es,omitempty"`
	TitleDE       *string `json:"title_de,omitempty"`
	DescriptionEN *string `json:"description_en,omitempty"`
	DescriptionZH *string `json:"description_zh,omitempty"`
	DescriptionRU *string `json:"description_ru,omitempty"`
	DescriptionES *string `json:"description_es,omitempty"`
	DescriptionDE *string `json:"description_de,omitempty"`
}

// IsPremium reports whether the listing belongs to the paid tier.
func (l Listing) IsPremium() bool {
	return l.Type == ListingPremium
}

// IsPending reports whether the listing is still waiting for its payment.
func (l Listing) IsPending() bool {
	return l.PaymentStatus != nil && *l.PaymentStatus == PaymentPending
}

// IsExpired reports whether expires_at lies at or before now.
// A listing without an expiry never expires.
func (l Listing) IsExpired(now time.Time) bool {
	return l.ExpiresAt != nil && !l.ExpiresAt.After(now)
}

// IsVisible is the feed's base predicate: active and not expired.
func (l Listing) IsVisible(now time.Time) bool {
	return l.IsActive && !l.IsExpired(now)
}

// CategoryValue returns the category or an empty string.
func (l Listing) CategoryValue() string {
	if l.Category == nil {
		return ""
	}
	return *l.Category
}

// EmailValue returns the contact email or an empty string.
func (l Listing) EmailValue() string {
	if l.Email == nil {
		return ""
	}
	return *l.Email
}

// LocalPostedAt returns posted_at, which is already stored shifted to local posting time.
func (l Listing) LocalPostedAt() time.Time {
	if l.PostedAt == nil {
		return time.Time{}
	}
	return *l.PostedAt
}

// DaysLeft returns the number of started days until expiry, never negative.
func (l Listing) DaysLeft(now time.Time) int {
	if l.ExpiresAt == nil {
		return 0
	}
	left := l.ExpiresAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// Localized returns a copy of the listing with title and description replaced
// by the translation for locale, when one is present.
func (l Listing) Localized(locale Locale) Listing {
	title, description := l.translation(locale)
	if title != nil && *title != "" {
		l.Title = *title
	}
	if description != nil && *description != "" {
		l.Description = *description
	}
	return l
}

func (l Listing) translation(locale Locale) (*string, *string) {
	switch locale {
	case LocaleEN:
		return l.TitleEN, l.DescriptionEN
	case LocaleZH:
		return l.TitleZH, l.DescriptionZH
	case LocaleRU:
		return l.TitleRU, l.DescriptionRU
	case LocaleES:
		return l.TitleES, l.DescriptionES
	case LocaleDE:
		return l.TitleDE, l.DescriptionDE
	}
	return nil, nil
}

// StringPtr is a small helper for nullable text columns.
func StringPtr(s string) *string {
	return &s
}

// TimePtr is a small helper for nullable timestamp columns.
func TimePtr(t time.Time) *time.Time {
	return &t
}

// PaymentStatusPtr is a small helper for the nullable payment_status column.
func PaymentStatusPtr(s PaymentStatus) *PaymentStatus {
	return &s
}
