package postimage

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"

	"github.com/mapa-cultural/core/internal/models"
	"github.com/mapa-cultural/core/internal/pkg/instagram"
)

var (
	ErrNoSlides        = errors.New("carrossel sem slides")
	ErrUnknownTemplate = errors.New("template de post desconhecido")
)

const baseCSS = `
*{box-sizing:border-box;margin:0;padding:0}
html,body{width:{{.Width}}px;height:{{.Height}}px;overflow:hidden}
body{font-family:"Inter","Helvetica Neue",Arial,sans-serif;color:#fdf6ec;background:#1f1b2e;-webkit-font-smoothing:antialiased}
.frame{position:relative;width:100%;height:100%;padding:72px;display:flex;flex-direction:column}
.brand{font-size:26px;letter-spacing:.3em;text-transform:uppercase;color:#f2b84b}
.tag{display:inline-block;margin-top:24px;padding:10px 26px;border-radius:40px;background:#f2b84b;color:#1f1b2e;font-size:28px;font-weight:700}
h1{font-size:84px;line-height:1.05;font-weight:800}
h2{font-size:40px;line-height:1.2;font-weight:500;color:#f7d9a0}
p{font-size:32px;line-height:1.45}
.cta{margin-top:auto;font-size:34px;font-weight:700;color:#f2b84b}
.handles{margin-top:18px;font-size:28px;color:#cfc6e6}
.photo{width:100%;height:640px;border-radius:32px;object-fit:cover;filter:saturate(1.1);margin:36px 0}
.counter{position:absolute;top:72px;right:72px;font-size:26px;color:#cfc6e6}
.announcement{justify-content:center;background:linear-gradient(160deg,#3a2c5e 0%,#1f1b2e 70%)}
.announcement h1{margin:32px 0 24px}
.announcement p{margin-top:32px}
`

const artistHTML = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><style>` + baseCSS + `</style></head>
<body><div class="frame">
<div class="brand">Mapa Cultural</div>
{{with .Post.PhotoURL}}<img class="photo" src="{{.}}" alt="">{{end}}
<h1>{{.Post.ArtistName}}</h1>
{{with .Post.ArtisticLang}}<div><span class="tag">{{.}}</span></div>{{end}}
{{with .Post.ArtistBio}}<p style="margin-top:28px">{{.}}</p>{{end}}
{{with .Post.SocialHandles}}<div class="handles">{{range $i, $h := .}}{{if $i}} · {{end}}{{$h}}{{end}}</div>{{end}}
{{with .Post.CTA}}<div class="cta">{{.}}</div>{{end}}
</div></body></html>`

const slideHTML = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><style>` + baseCSS + `</style></head>
<body><div class="frame">
<div class="brand">Mapa Cultural</div>
{{if gt .Total 1}}<div class="counter">{{.Index}}/{{.Total}}</div>{{end}}
{{with .Slide.ImageURL}}<img class="photo" src="{{.}}" alt="">{{end}}
<h1>{{.Slide.Title}}</h1>
{{with .Slide.Subtitle}}<h2 style="margin-top:20px">{{.}}</h2>{{end}}
{{with .Slide.Description}}<p style="margin-top:28px">{{.}}</p>{{end}}
{{if eq .Index .Total}}{{with .Post.CTA}}<div class="cta">{{.}}</div>{{end}}{{end}}
</div></body></html>`

const announcementHTML = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><style>` + baseCSS + `</style></head>
<body><div class="frame announcement">
<div class="brand">Mapa Cultural</div>
<h1>{{.Post.Title}}</h1>
{{with .Post.Subtitle}}<h2>{{.}}</h2>{{end}}
{{with .Post.Description}}<p>{{.}}</p>{{end}}
{{with .Post.CTA}}<div class="cta">{{.}}</div>{{end}}
</div></body></html>`

var documents = struct {
	artist, slide, announcement *template.Template
}{
	artist:       template.Must(template.New("artist").Parse(artistHTML)),
	slide:        template.Must(template.New("slide").Parse(slideHTML)),
	announcement: template.Must(template.New("announcement").Parse(announcementHTML)),
}

type documentData struct {
	Width, Height int
	Post          *models.InstagramPostModel
	Slide         models.Slide
	Index, Total  int
}

// BuildDocuments returns one self-contained HTML document per image of the post.
// Carousels produce one document per slide, every other template exactly one.
func BuildDocuments(p *models.InstagramPostModel, width, height int) ([]string, error) {
	data := documentData{Width: width, Height: height, Post: p}
	switch p.Template {
	case models.TemplateArtist:
		doc, err := execute(documents.artist, data)
		if err != nil {
			return nil, err
		}
		return []string{doc}, nil
	case models.TemplateAnnouncement:
		doc, err := execute(documents.announcement, data)
		if err != nil {
			return nil, err
		}
		return []string{doc}, nil
	case models.TemplateCarousel:
		if len(p.Slides) == 0 {
			return nil, ErrNoSlides
		}
		if len(p.Slides) > instagram.MaxCarouselItems {
			return nil, instagram.ErrTooManyImages
		}
		docs := make([]string, 0, len(p.Slides))
		for i, slide := range p.Slides {
			data.Slide = slide
			data.Index = i + 1
			data.Total = len(p.Slides)
			doc, err := execute(documents.slide, data)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, p.Template)
	}
}

func execute(t *template.Template, data documentData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s document: %w", t.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
