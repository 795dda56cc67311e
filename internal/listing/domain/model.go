package domain

import "time"

// Category is the browseable scope a listing belongs to. Buyers reach it by slug.
type Category struct {
	ID   string
	Slug string
	Name string
}

type Platform struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Listing is a service a seller publishes inside one category.
type Listing struct {
	ID          string
	UserID      string
	CategoryID  string
	Level       string
	Platforms   []Platform
	Description string
	Price       float64
	Per         string
	Image       string
	Status      bool // active flag, toggled by the owner
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type User struct {
	ID          string
	Username    string
	Email       string
	Gender      string
	Birthdate   *time.Time
	Country     string
	Description string
	LastOnline  time.Time
}

type ListingImage struct {
	ID        string
	ListingID string
	URL       string
	PublicID  string
}

type UserLanguage struct {
	UserID     string
	LanguageID string
	Name       string
}

// Candidate is a listing joined with the seller attributes that facets filter on.
type Candidate struct {
	Listing         Listing
	SellerGender    string
	SellerBirthdate *time.Time
	LanguageIDs     []string
}

// Timestamp truncates t to the precision cursors carry.
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
