package domain

import (
	"fmt"
	"time"
)

// Domain is one of the three content kinds a provider exposes.
type Domain string

const (
	DomainChannel Domain = "channel"
	DomainMovie   Domain = "movie"
	DomainSeries  Domain = "series"
)

// Domains returns the content domains in sync order.
func Domains() []Domain {
	return []Domain{DomainChannel, DomainMovie, DomainSeries}
}

// ParseDomain accepts the singular and plural spellings used by the API.
func ParseDomain(s string) (Domain, error) {
	switch s {
	case "channel", "channels", "live":
		return DomainChannel, nil
	case "movie", "movies", "vod":
		return DomainMovie, nil
	case "series":
		return DomainSeries, nil
	}
	return "", fmt.Errorf("unknown domain %q", s)
}

// Subscription identifies one provider account.
type Subscription struct {
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	// SyncedAt is set when a run reaches COMPLETED.
	SyncedAt  *time.Time `json:"synced_at,omitempty" db:"synced_at"`
	OwnerRef  string     `json:"owner_ref" db:"owner_ref"`
	Host      string     `json:"host" db:"host" validate:"required,url"`
	Username  string     `json:"username" db:"username" validate:"required"`
	Password  string     `json:"-" db:"password" validate:"required"`
	ID        int64      `json:"id" db:"id"`
}

// Account returns the credentials the provider client needs.
func (s *Subscription) Account() Account {
	return Account{Host: s.Host, Username: s.Username, Password: s.Password}
}

// Account is the host/credential triple sent to a provider.
type Account struct {
	Host     string
	Username string
	Password string
}

// Category groups items of a single domain within a subscription.
type Category struct {
	Name               string `json:"name" db:"name"`
	Domain             Domain `json:"domain" db:"domain"`
	ID                 int64  `json:"id" db:"id"`
	ProviderCategoryID int64  `json:"provider_category_id" db:"provider_category_id"`
	SubscriptionID     int64  `json:"subscription_id" db:"subscription_id"`
}

// NaturalKey identifies a catalog row independently of its local id.
type NaturalKey struct {
	ProviderItemID int64 `json:"provider_item_id"`
	CategoryID     int64 `json:"category_id"`
	SubscriptionID int64 `json:"subscription_id"`
}

// ItemRef is the part of a catalog row surfaced in sync reports.
type ItemRef struct {
	Name string `json:"name"`
	NaturalKey
}

// CatalogItem is implemented by Channel, Movie and Series.
type CatalogItem interface {
	Key() NaturalKey
	Title() string
}

// Channel is a live stream.
type Channel struct {
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	Name           string    `json:"name" db:"name"`
	StreamType     string    `json:"stream_type" db:"stream_type"`
	StreamIcon     string    `json:"stream_icon" db:"stream_icon"`
	URL            string    `json:"url" db:"url"`
	ID             int64     `json:"id" db:"id"`
	ProviderItemID int64     `json:"provider_item_id" db:"provider_item_id"`
	CategoryID     int64     `json:"category_id" db:"category_id"`
	SubscriptionID int64     `json:"subscription_id" db:"subscription_id"`
	CategoryRef    int64     `json:"category_ref" db:"category_ref"`
	IsFavorite     bool      `json:"is_favorite" db:"is_favorite"`
}

func (c Channel) Key() NaturalKey {
	return NaturalKey{ProviderItemID: c.ProviderItemID, CategoryID: c.CategoryID, SubscriptionID: c.SubscriptionID}
}

func (c Channel) Title() string { return c.Name }

// Movie is a video-on-demand title.
type Movie struct {
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	Name               string    `json:"name" db:"name"`
	StreamType         string    `json:"stream_type" db:"stream_type"`
	StreamIcon         string    `json:"stream_icon" db:"stream_icon"`
	Rating             string    `json:"rating" db:"rating"`
	Added              string    `json:"added" db:"added"`
	ContainerExtension string    `json:"container_extension" db:"container_extension"`
	URL                string    `json:"url" db:"url"`
	ID                 int64     `json:"id" db:"id"`
	ProviderItemID     int64     `json:"provider_item_id" db:"provider_item_id"`
	CategoryID         int64     `json:"category_id" db:"category_id"`
	SubscriptionID     int64     `json:"subscription_id" db:"subscription_id"`
	CategoryRef        int64     `json:"category_ref" db:"category_ref"`
}

func (m Movie) Key() NaturalKey {
	return NaturalKey{ProviderItemID: m.ProviderItemID, CategoryID: m.CategoryID, SubscriptionID: m.SubscriptionID}
}

func (m Movie) Title() string { return m.Name }

// Series is an episodic show. Episodes are fetched on demand by clients.
type Series struct {
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	Name           string    `json:"name" db:"name"`
	Cover          string    `json:"cover" db:"cover"`
	Plot           string    `json:"plot" db:"plot"`
	Cast           string    `json:"cast" db:"cast"`
	Director       string    `json:"director" db:"director"`
	Genre          string    `json:"genre" db:"genre"`
	ReleaseDate    string    `json:"release_date" db:"release_date"`
	LastModified   string    `json:"last_modified" db:"last_modified"`
	Rating         string    `json:"rating" db:"rating"`
	BackdropPath   string    `json:"backdrop_path" db:"backdrop_path"`
	YoutubeTrailer string    `json:"youtube_trailer" db:"youtube_trailer"`
	EpisodeRunTime string    `json:"episode_run_time" db:"episode_run_time"`
	ID             int64     `json:"id" db:"id"`
	ProviderItemID int64     `json:"provider_item_id" db:"provider_item_id"`
	CategoryID     int64     `json:"category_id" db:"category_id"`
	SubscriptionID int64     `json:"subscription_id" db:"subscription_id"`
	CategoryRef    int64     `json:"category_ref" db:"category_ref"`
}

func (s Series) Key() NaturalKey {
	return NaturalKey{ProviderItemID: s.ProviderItemID, CategoryID: s.CategoryID, SubscriptionID: s.SubscriptionID}
}

func (s Series) Title() string { return s.Name }

// WriteResult is the outcome of writing one chunk of rows.
// Skipped counts rows whose natural key already existed.
type WriteResult struct {
	FirstErr error
	Inserted int
	Skipped  int
	Failed   int
}
