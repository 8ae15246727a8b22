package models

import (
	"strings"
	"time"
)

// PostTemplate selects the layout used to render an Instagram post.
type PostTemplate string

const (
	TemplateArtist       PostTemplate = "artist"
	TemplateCarousel     PostTemplate = "carousel"
	TemplateAnnouncement PostTemplate = "announcement"
)

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

// Slide is one page of a carousel post.
type Slide struct {
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

// InstagramPostModel is a promotional post prepared in the admin panel.
type InstagramPostModel struct {
	Base
	Template    PostTemplate `json:"template"    gorm:"type:varchar(32);not null"`
	Slides      []Slide      `json:"slides"      gorm:"type:text;serializer:json"`
	Title       string       `json:"title"`
	Subtitle    string       `json:"subtitle"`
	Description string       `json:"description" gorm:"type:text"`
	CTA         string       `json:"cta"`
	Caption     string       `json:"caption"     gorm:"type:text"`
	Hashtags    StringArray  `json:"hashtags"    gorm:"type:text"`

	ArtistName    string      `json:"artist_name"`
	ArtistBio     string      `json:"artist_bio"      gorm:"type:text"`
	ArtisticLang  string      `json:"artistic_language"`
	PhotoURL      string      `json:"photo_url"       gorm:"type:text"`
	SocialHandles StringArray `json:"social_handles"  gorm:"type:text"`
	ImageURLs     StringArray `json:"image_urls"      gorm:"type:text"`

	Status         string     `json:"status"           gorm:"type:varchar(16);default:'draft';index"`
	ExternalPostID *string    `json:"external_post_id"`
	Permalink      *string    `json:"permalink"        gorm:"type:text"`
	PublishedAt    *time.Time `json:"published_at"`
}

func (InstagramPostModel) TableName() string { return "instagram_posts" }

// FullCaption joins the caption and hashtags the way they are sent to Instagram.
func (p InstagramPostModel) FullCaption() string {
	tags := make([]string, 0, len(p.Hashtags))
	for _, h := range p.Hashtags {
		h = strings.TrimSpace(h)
		if h == "" {
			continue
		}
		if !strings.HasPrefix(h, "#") {
			h = "#" + h
		}
		tags = append(tags, h)
	}
	caption := strings.TrimSpace(p.Caption)
	switch {
	case len(tags) == 0:
		return caption
	case caption == "":
		return strings.Join(tags, " ")
	default:
		return caption + "\n\n" + strings.Join(tags, " ")
	}
}
